package probe

import (
	"context"
	"errors"
	"testing"
)

const sampleWhois = `Domain Name: EXAMPLE.COM
Registry Domain ID: 2336799_DOMAIN_COM-VRSN
Registrar WHOIS Server: whois.iana.org
Registrar URL: http://res-dom.iana.org
Updated Date: 2024-08-14T07:01:34Z
Creation Date: 1995-08-14T04:00:00Z
Registry Expiry Date: 2026-08-13T04:00:00Z
Registrar: RESERVED-Internet Assigned Numbers Authority
Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
Name Server: A.IANA-SERVERS.NET
Name Server: B.IANA-SERVERS.NET
DNSSEC: signedDelegation
>>> Last update of whois database: 2026-08-28T00:00:00Z <<<
`

func TestWhoisProbeParsesRegistryFields(t *testing.T) {
	w := &WhoisProber{
		lookup: func(ctx context.Context, domain string) (string, error) {
			if domain != "example.com" {
				t.Errorf("lookup domain = %q, want example.com", domain)
			}
			return sampleWhois, nil
		},
	}

	res := w.Probe(context.Background(), Target{Host: "example.com"})
	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, want %q (error: %s)", res.Status, StatusSuccess, res.Error)
	}
	if res.Whois == nil {
		t.Fatal("missing whois payload")
	}
	if res.Whois.Registrar == "" {
		t.Error("Registrar should be populated")
	}
	if res.Whois.CreatedDate == "" {
		t.Error("CreatedDate should be populated")
	}
	if res.Whois.ExpirationDate == "" {
		t.Error("ExpirationDate should be populated")
	}
	if len(res.Whois.NameServers) != 2 {
		t.Errorf("NameServers = %v, want 2 entries", res.Whois.NameServers)
	}
}

func TestWhoisProbeLookupError(t *testing.T) {
	w := &WhoisProber{
		lookup: func(ctx context.Context, domain string) (string, error) {
			return "", errors.New("connection refused")
		},
	}

	res := w.Probe(context.Background(), Target{Host: "example.com"})
	if res.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", res.Status, StatusFailed)
	}
	if res.Error == "" {
		t.Error("failed lookup should carry an error message")
	}
}

func TestWhoisProbeUnparseableResponse(t *testing.T) {
	w := &WhoisProber{
		lookup: func(ctx context.Context, domain string) (string, error) {
			return "No match for domain", nil
		},
	}

	res := w.Probe(context.Background(), Target{Host: "nonexistent-domain-zz.com"})
	if res.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", res.Status, StatusFailed)
	}
}
