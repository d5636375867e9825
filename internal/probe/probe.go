// Package probe implements the diagnostics engine: a closed set of
// network probes, a bounded-concurrency scheduler, and the report
// assembly that merges probe outcomes for the export and display layers.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status describes the outcome of a single probe or a whole report.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusPartial  Status = "partial_success"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	StatusSkipped  Status = "skipped"
)

// Succeeded reports whether the status carries usable payload data.
func (s Status) Succeeded() bool {
	return s == StatusSuccess || s == StatusPartial
}

// Kind identifies one probe variant. The set is closed: every kind has
// exactly one Prober implementation and commands select probes by kind,
// never by free-form strings.
type Kind string

const (
	KindDNS         Kind = "dns"
	KindLocalNet    Kind = "localnet"
	KindLanScan     Kind = "lan_scan"
	KindPing        Kind = "ping"
	KindPacketLoss  Kind = "packet_loss"
	KindPortScan    Kind = "port_scan"
	KindTraceroute  Kind = "traceroute"
	KindSpeedTest   Kind = "speed_test"
	KindWhois       Kind = "whois"
	KindCertificate Kind = "certificate"
)

// AllKinds lists every probe kind in canonical execution order.
func AllKinds() []Kind {
	return []Kind{
		KindDNS,
		KindLocalNet,
		KindLanScan,
		KindPing,
		KindPacketLoss,
		KindPortScan,
		KindTraceroute,
		KindSpeedTest,
		KindWhois,
		KindCertificate,
	}
}

// ParseKind converts a user-supplied probe name into a Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range AllKinds() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", &ConfigurationError{Reason: fmt.Sprintf("unknown probe %q", name)}
}

// Result is the uniform outcome of one probe execution. Exactly one of
// the payload pointers is set when Status is success or partial success;
// Error is set when Status is failed or timed out; Reason is set when
// Status is skipped.
type Result struct {
	Name       string  `json:"name"`
	Status     Status  `json:"status"`
	Error      string  `json:"error,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	DurationMS float64 `json:"duration_ms"`

	DNS        *DNSPayload        `json:"dns,omitempty"`
	LocalNet   *LocalNetPayload   `json:"localnet,omitempty"`
	LanScan    *LanScanPayload    `json:"lan_scan,omitempty"`
	Ping       *PingPayload       `json:"ping,omitempty"`
	PacketLoss *PacketLossPayload `json:"packet_loss,omitempty"`
	PortScan   *PortScanPayload   `json:"port_scan,omitempty"`
	Traceroute *TraceroutePayload `json:"traceroute,omitempty"`
	SpeedTest  *SpeedTestPayload  `json:"speed_test,omitempty"`
	Whois      *WhoisPayload      `json:"whois,omitempty"`
	Cert       *CertPayload       `json:"certificate,omitempty"`

	Duration time.Duration `json:"-"`
}

// Prober is implemented by every probe executor. Probe must honor ctx,
// apply its own bounded timeout, and translate every failure into a
// Result; it never panics and never returns an error to the scheduler.
type Prober interface {
	Probe(ctx context.Context, target Target) Result
	Kind() Kind
}

// failedResult builds a failed Result, mapping context expiry to the
// timed-out status so the report distinguishes deadline from failure.
func failedResult(kind Kind, err error) Result {
	r := Result{Name: string(kind), Status: StatusFailed, Error: err.Error()}
	if isTimeout(err) {
		r.Status = StatusTimedOut
	}
	return r
}

func skippedResult(kind Kind, reason string) Result {
	return Result{Name: string(kind), Status: StatusSkipped, Reason: reason}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
