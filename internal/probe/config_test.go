package probe

import (
	"testing"
	"time"
)

func TestProberForCoversAllKinds(t *testing.T) {
	for _, k := range AllKinds() {
		if p := proberFor(k, Config{}); p == nil {
			t.Errorf("proberFor(%q) = nil", k)
		} else if p.Kind() != k {
			t.Errorf("proberFor(%q).Kind() = %q", k, p.Kind())
		}
	}
}

func TestProberForUnknownKind(t *testing.T) {
	if p := proberFor(Kind("bogus"), Config{}); p != nil {
		t.Errorf("proberFor(bogus) = %T, want nil", p)
	}
}

func TestConfigTimeoutDefault(t *testing.T) {
	if got := (Config{}).timeout(); got != DefaultProbeTimeout {
		t.Errorf("zero config timeout = %v, want %v", got, DefaultProbeTimeout)
	}
	if got := (Config{Timeout: 3 * time.Second}).timeout(); got != 3*time.Second {
		t.Errorf("explicit timeout = %v, want 3s", got)
	}
}

func TestApplicable(t *testing.T) {
	ipTarget := Target{Host: "192.0.2.1", IsIP: true}
	domainTarget := Target{Host: "example.com"}

	for _, k := range AllKinds() {
		if ok, _ := applicable(k, domainTarget); !ok {
			t.Errorf("probe %q should apply to domain targets", k)
		}
	}

	for _, k := range []Kind{KindWhois, KindDNS} {
		ok, reason := applicable(k, ipTarget)
		if ok {
			t.Errorf("probe %q should be skipped for IP targets", k)
		}
		if reason == "" {
			t.Errorf("probe %q skip should carry a reason", k)
		}
	}
	if ok, _ := applicable(KindPing, ipTarget); !ok {
		t.Error("ping should apply to IP targets")
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("traceroute")
	if err != nil {
		t.Fatalf("ParseKind(traceroute) error = %v", err)
	}
	if k != KindTraceroute {
		t.Errorf("ParseKind = %q, want %q", k, KindTraceroute)
	}

	if _, err := ParseKind("nmap"); !IsConfigurationError(err) {
		t.Errorf("ParseKind(nmap) error = %v, want ConfigurationError", err)
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds([]string{"ping", "dns"})
	if err != nil {
		t.Fatalf("ParseKinds() error = %v", err)
	}
	if len(kinds) != 2 || kinds[0] != KindPing || kinds[1] != KindDNS {
		t.Errorf("ParseKinds = %v", kinds)
	}

	if _, err := ParseKinds(nil); !IsConfigurationError(err) {
		t.Errorf("ParseKinds(nil) error = %v, want ConfigurationError", err)
	}
	if _, err := ParseKinds([]string{"ping", "bogus"}); !IsConfigurationError(err) {
		t.Errorf("ParseKinds with unknown name error = %v, want ConfigurationError", err)
	}
}
