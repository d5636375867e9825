package probe

import (
	"context"
	"net"
	"testing"
)

func TestResolveIPv4Literal(t *testing.T) {
	ip, err := resolveIPv4(context.Background(), "192.0.2.7")
	if err != nil {
		t.Fatalf("resolveIPv4() error = %v", err)
	}
	if ip.String() != "192.0.2.7" {
		t.Errorf("ip = %v, want 192.0.2.7", ip)
	}
}

func TestResolveIPv4RejectsIPv6(t *testing.T) {
	if _, err := resolveIPv4(context.Background(), "2001:db8::1"); err == nil {
		t.Fatal("expected error for IPv6 literal")
	}
}

func TestPeerIP(t *testing.T) {
	udp := &net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: 33434}
	if got := peerIP(udp); got != "10.0.0.1" {
		t.Errorf("peerIP(udp) = %q, want 10.0.0.1", got)
	}
	ipAddr := &net.IPAddr{IP: net.ParseIP("10.0.0.2")}
	if got := peerIP(ipAddr); got != "10.0.0.2" {
		t.Errorf("peerIP(ip) = %q, want 10.0.0.2", got)
	}
}
