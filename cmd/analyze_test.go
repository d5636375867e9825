package cmd

import (
	"testing"

	"github.com/ducminh1220/netscope/internal/probe"
)

func TestSelectedKindsDefaultsToAll(t *testing.T) {
	kinds, err := selectedKinds(nil)
	if err != nil {
		t.Fatalf("selectedKinds(nil) error = %v", err)
	}
	if len(kinds) != len(probe.AllKinds()) {
		t.Errorf("got %d kinds, want %d", len(kinds), len(probe.AllKinds()))
	}
}

func TestSelectedKindsCommaSeparated(t *testing.T) {
	kinds, err := selectedKinds([]string{"ping, dns", "traceroute"})
	if err != nil {
		t.Fatalf("selectedKinds() error = %v", err)
	}
	want := []probe.Kind{probe.KindPing, probe.KindDNS, probe.KindTraceroute}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestSelectedKindsRejectsUnknown(t *testing.T) {
	if _, err := selectedKinds([]string{"nmap"}); err == nil {
		t.Fatal("expected error for unknown probe name")
	}
}
