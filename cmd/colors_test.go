package cmd

import (
	"strings"
	"testing"
)

func TestFormatStatusWithColor(t *testing.T) {
	// Colors may be stripped in test environments; the status text must
	// survive either way.
	for _, status := range []string{"success", "partial_success", "failed", "timed_out", "skipped", "unknown"} {
		got := formatStatusWithColor(status)
		if !strings.Contains(got, status) {
			t.Errorf("formatStatusWithColor(%q) = %q, should contain the status text", status, got)
		}
	}
}
