package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ducminh1220/netscope/internal/probe"
)

func testReport() *probe.Report {
	return &probe.Report{
		Target:        "example.com",
		StartedAt:     time.Now().Add(-10 * time.Second),
		CompletedAt:   time.Now(),
		OverallStatus: probe.StatusPartial,
		ElapsedMS:     10000,
		Results: map[probe.Kind]probe.Result{
			probe.KindPing: {
				Name:       "ping",
				Status:     probe.StatusSuccess,
				DurationMS: 850,
				Ping:       &probe.PingPayload{PacketsSent: 4, PacketsRecv: 4, AvgMS: 12.3, Method: "icmp"},
			},
			probe.KindPortScan: {
				Name:       "port_scan",
				Status:     probe.StatusSuccess,
				DurationMS: 2100,
				PortScan: &probe.PortScanPayload{
					Scanned:   18,
					OpenPorts: []probe.PortInfo{{Port: 443, State: "open", Service: "https"}},
				},
			},
			probe.KindWhois: {
				Name:   "whois",
				Status: probe.StatusFailed,
				Error:  "whois query failed: timeout",
			},
		},
	}
}

func TestRenderReportSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	renderReport(&buf, testReport())
	out := buf.String()

	for _, want := range []string{
		"example.com",
		"PROBE",
		"ping",
		"port_scan",
		"whois",
		"whois query failed: timeout",
		"443/tcp",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report missing %q\noutput:\n%s", want, out)
		}
	}
}

func TestRenderReportOrdersProbesCanonically(t *testing.T) {
	var buf bytes.Buffer
	renderReport(&buf, testReport())
	out := buf.String()

	// ping precedes port_scan precedes whois in the canonical order.
	ping := strings.Index(out, "ping")
	scan := strings.Index(out, "port_scan")
	whois := strings.Index(out, "whois")
	if !(ping < scan && scan < whois) {
		t.Errorf("probe rows out of canonical order: ping=%d port_scan=%d whois=%d", ping, scan, whois)
	}
}

func TestSummaryLine(t *testing.T) {
	res := probe.Result{
		Status:   probe.StatusSuccess,
		PortScan: &probe.PortScanPayload{Scanned: 18, OpenPorts: []probe.PortInfo{{Port: 22}}},
	}
	if got := summaryLine(res); got != "1/18 ports open" {
		t.Errorf("summaryLine = %q, want 1/18 ports open", got)
	}

	failed := probe.Result{Status: probe.StatusFailed, Error: "boom"}
	if got := summaryLine(failed); got != "boom" {
		t.Errorf("summaryLine(failed) = %q, want the error text", got)
	}
}
