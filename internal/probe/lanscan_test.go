package probe

import (
	"context"
	"net/netip"
	"testing"
	"time"
)

func TestPrefixHosts(t *testing.T) {
	tests := []struct {
		cidr  string
		want  int
		first string
		last  string
	}{
		{"192.168.1.0/30", 2, "192.168.1.1", "192.168.1.2"},
		{"192.168.1.0/29", 6, "192.168.1.1", "192.168.1.6"},
		{"192.168.1.0/24", 254, "192.168.1.1", "192.168.1.254"},
		{"192.168.1.5/32", 1, "192.168.1.5", "192.168.1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			prefix := netip.MustParsePrefix(tt.cidr)
			hosts := prefixHosts(prefix, maxSweepHosts)
			if len(hosts) != tt.want {
				t.Fatalf("got %d hosts, want %d", len(hosts), tt.want)
			}
			if got := hosts[0].String(); got != tt.first {
				t.Errorf("first host = %s, want %s", got, tt.first)
			}
			if got := hosts[len(hosts)-1].String(); got != tt.last {
				t.Errorf("last host = %s, want %s", got, tt.last)
			}
		})
	}
}

func TestPrefixHostsCapped(t *testing.T) {
	prefix := netip.MustParsePrefix("10.0.0.0/16")
	hosts := prefixHosts(prefix, 100)
	if len(hosts) != 100 {
		t.Fatalf("got %d hosts, want cap of 100", len(hosts))
	}
}

func TestLanScanFindsResponsiveHosts(t *testing.T) {
	responsive := map[string]bool{
		"192.0.2.10": true,
		"192.0.2.2":  true,
	}
	p := &LanScanProber{
		Subnet: "192.0.2.0/28",
		reach: func(ctx context.Context, addr string, timeout time.Duration) (float64, bool) {
			if responsive[addr] {
				return 1.5, true
			}
			return 0, false
		},
	}

	res := p.Probe(context.Background(), Target{})
	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, want %q (error: %s)", res.Status, StatusSuccess, res.Error)
	}
	if res.LanScan == nil {
		t.Fatal("missing lan scan payload")
	}
	if res.LanScan.Scanned != 14 {
		t.Errorf("Scanned = %d, want 14 usable hosts in a /28", res.LanScan.Scanned)
	}
	if len(res.LanScan.Devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(res.LanScan.Devices))
	}
	// Devices sort by address, numerically not lexically.
	if got := res.LanScan.Devices[0].Address; got != "192.0.2.2" {
		t.Errorf("first device = %s, want 192.0.2.2", got)
	}
	if got := res.LanScan.Devices[1].Address; got != "192.0.2.10" {
		t.Errorf("second device = %s, want 192.0.2.10", got)
	}
}

func TestLanScanNoRespondersIsSuccess(t *testing.T) {
	p := &LanScanProber{
		Subnet: "192.0.2.0/30",
		reach: func(ctx context.Context, addr string, timeout time.Duration) (float64, bool) {
			return 0, false
		},
	}

	res := p.Probe(context.Background(), Target{})
	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, want %q: a quiet subnet is not a failure", res.Status, StatusSuccess)
	}
	if len(res.LanScan.Devices) != 0 {
		t.Errorf("got %d devices, want 0", len(res.LanScan.Devices))
	}
}

func TestLanScanInvalidSubnet(t *testing.T) {
	p := &LanScanProber{Subnet: "not-a-cidr"}
	res := p.Probe(context.Background(), Target{})
	if res.Status != StatusFailed {
		t.Errorf("status = %q, want %q for an unparseable subnet", res.Status, StatusFailed)
	}
	if res.Error == "" {
		t.Error("expected an error message")
	}
}

func TestLanScanRejectsIPv6Subnet(t *testing.T) {
	p := &LanScanProber{Subnet: "2001:db8::/64"}
	res := p.Probe(context.Background(), Target{})
	if res.Status != StatusFailed {
		t.Errorf("status = %q, want %q for an IPv6 subnet", res.Status, StatusFailed)
	}
}

func TestLanScanCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &LanScanProber{
		Subnet: "192.0.2.0/28",
		reach: func(ctx context.Context, addr string, timeout time.Duration) (float64, bool) {
			return 1.0, true
		},
	}

	res := p.Probe(ctx, Target{})
	if res.Status.Succeeded() {
		t.Errorf("status = %q, want a failure for a cancelled sweep", res.Status)
	}
}
