package probe

import "testing"

func TestParseGateway(t *testing.T) {
	// 0102A8C0 little-endian is 192.168.2.1.
	table := "Iface\tDestination\tGateway\tFlags\n" +
		"eth0\t000A0A0A\t00000000\t0001\n" +
		"eth0\t00000000\t0102A8C0\t0003\n"

	if got := parseGateway(table); got != "192.168.2.1" {
		t.Errorf("parseGateway = %q, want 192.168.2.1", got)
	}
}

func TestParseGatewayNoDefaultRoute(t *testing.T) {
	table := "Iface\tDestination\tGateway\tFlags\n" +
		"eth0\t000A0A0A\t0102A8C0\t0001\n"

	if got := parseGateway(table); got != "" {
		t.Errorf("parseGateway = %q, want empty for missing default route", got)
	}
}

func TestParseGatewayMalformed(t *testing.T) {
	if got := parseGateway("garbage\nnot a route table"); got != "" {
		t.Errorf("parseGateway = %q, want empty for malformed input", got)
	}
}

func TestSystemDNSServersNeverEmpty(t *testing.T) {
	servers := systemDNSServers()
	if len(servers) == 0 {
		t.Fatal("systemDNSServers returned no servers; public fallback expected")
	}
}
