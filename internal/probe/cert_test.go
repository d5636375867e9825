package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCertProbeSelfSignedIsPartial(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "https://"))
	if err != nil {
		t.Fatalf("split server address: %v", err)
	}

	c := &CertProber{Timeout: 2 * time.Second, Port: port}
	res := c.Probe(context.Background(), Target{Host: host, IsIP: true})

	if res.Status != StatusPartial {
		t.Fatalf("status = %q, want %q for an unverifiable chain (error: %s)", res.Status, StatusPartial, res.Error)
	}
	if res.Cert == nil {
		t.Fatal("missing certificate payload")
	}
	if len(res.Cert.Warnings) == 0 {
		t.Error("unverifiable chain should produce warnings")
	}
	if res.Cert.NotAfter == "" || res.Cert.NotBefore == "" {
		t.Error("validity window should be populated")
	}
	if res.Cert.FingerprintSHA == "" {
		t.Error("fingerprint should be populated")
	}
	if res.Cert.ChainLength < 1 {
		t.Errorf("ChainLength = %d, want >= 1", res.Cert.ChainLength)
	}
}

func TestCertProbeNoListener(t *testing.T) {
	// Grab a free port and close it so the handshake is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	c := &CertProber{Timeout: time.Second, Port: port}
	res := c.Probe(context.Background(), Target{Host: "127.0.0.1", IsIP: true})
	if res.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", res.Status, StatusFailed)
	}
	if res.Error == "" {
		t.Error("failed handshake should carry an error message")
	}
}

func TestCertProbeUsesTargetPort(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "https://"))
	if err != nil {
		t.Fatalf("split server address: %v", err)
	}

	// The prober default port is wrong; the target's explicit port wins.
	c := &CertProber{Timeout: 2 * time.Second, Port: "1"}
	res := c.Probe(context.Background(), Target{Host: host, Port: port, IsIP: true})
	if !res.Status.Succeeded() {
		t.Fatalf("status = %q, want a success (error: %s)", res.Status, res.Error)
	}
}

func TestFormatFingerprint(t *testing.T) {
	got := formatFingerprint([]byte{0xde, 0xad, 0xbe, 0xef})
	if got != "DE:AD:BE:EF" {
		t.Errorf("formatFingerprint = %q, want DE:AD:BE:EF", got)
	}
}
