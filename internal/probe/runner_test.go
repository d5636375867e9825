package probe

import (
	"context"
	"testing"
	"time"
)

// fakeProber lets scheduler tests control outcome, delay and panics
// without touching the network.
type fakeProber struct {
	kind     Kind
	delay    time.Duration
	result   Result
	panicMsg string
}

func (f *fakeProber) Kind() Kind { return f.kind }

func (f *fakeProber) Probe(ctx context.Context, target Target) Result {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return failedResult(f.kind, ctx.Err())
		}
	}
	return f.result
}

func fakeFactory(outcomes map[Kind]*fakeProber) func(Kind, Config) Prober {
	return func(k Kind, _ Config) Prober {
		if p, ok := outcomes[k]; ok {
			return p
		}
		return &fakeProber{kind: k, result: Result{Status: StatusSuccess, Ping: &PingPayload{}}}
	}
}

func TestRunnerResultKeysMatchRequest(t *testing.T) {
	kinds := []Kind{KindPing, KindPortScan, KindCertificate}
	r := &Runner{
		newProber: fakeFactory(map[Kind]*fakeProber{
			KindPortScan: {kind: KindPortScan, result: Result{Status: StatusFailed, Error: "connection refused"}},
		}),
	}

	report, err := r.Run(context.Background(), "example.com", kinds)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(report.Results) != len(kinds) {
		t.Fatalf("got %d results, want %d", len(report.Results), len(kinds))
	}
	for _, k := range kinds {
		if _, ok := report.Results[k]; !ok {
			t.Errorf("missing result for probe %q", k)
		}
	}
}

func TestRunnerOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		outcomes map[Kind]*fakeProber
		want     Status
	}{
		{
			name: "all succeed",
			outcomes: map[Kind]*fakeProber{
				KindPing:     {kind: KindPing, result: Result{Status: StatusSuccess, Ping: &PingPayload{}}},
				KindPortScan: {kind: KindPortScan, result: Result{Status: StatusSuccess, PortScan: &PortScanPayload{}}},
			},
			want: StatusSuccess,
		},
		{
			name: "one fails",
			outcomes: map[Kind]*fakeProber{
				KindPing:     {kind: KindPing, result: Result{Status: StatusSuccess, Ping: &PingPayload{}}},
				KindPortScan: {kind: KindPortScan, result: Result{Status: StatusFailed, Error: "boom"}},
			},
			want: StatusPartial,
		},
		{
			name: "all fail",
			outcomes: map[Kind]*fakeProber{
				KindPing:     {kind: KindPing, result: Result{Status: StatusFailed, Error: "boom"}},
				KindPortScan: {kind: KindPortScan, result: Result{Status: StatusTimedOut, Error: "slow"}},
			},
			want: StatusFailed,
		},
		{
			name: "partial counts as success",
			outcomes: map[Kind]*fakeProber{
				KindPing:     {kind: KindPing, result: Result{Status: StatusPartial, Ping: &PingPayload{LossPct: 25}}},
				KindPortScan: {kind: KindPortScan, result: Result{Status: StatusFailed, Error: "boom"}},
			},
			want: StatusPartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Runner{newProber: fakeFactory(tt.outcomes)}
			report, err := r.Run(context.Background(), "example.com", []Kind{KindPing, KindPortScan})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if report.OverallStatus != tt.want {
				t.Errorf("OverallStatus = %q, want %q", report.OverallStatus, tt.want)
			}
		})
	}
}

func TestRunnerOverallTimeoutMarksPending(t *testing.T) {
	r := &Runner{
		OverallTimeout: 100 * time.Millisecond,
		ProbeTimeout:   time.Minute,
		newProber: fakeFactory(map[Kind]*fakeProber{
			KindPing: {kind: KindPing, result: Result{Status: StatusSuccess, Ping: &PingPayload{}}},
			KindSpeedTest: {
				kind:   KindSpeedTest,
				delay:  5 * time.Second,
				result: Result{Status: StatusSuccess, SpeedTest: &SpeedTestPayload{}},
			},
		}),
	}

	start := time.Now()
	report, err := r.Run(context.Background(), "example.com", []Kind{KindPing, KindSpeedTest})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Run() blocked %v past the overall timeout", elapsed)
	}

	slow, ok := report.Results[KindSpeedTest]
	if !ok {
		t.Fatal("slow probe missing from report")
	}
	if slow.Status != StatusTimedOut {
		t.Errorf("slow probe status = %q, want %q", slow.Status, StatusTimedOut)
	}
	if slow.Error == "" {
		t.Error("timed-out probe should carry an error description")
	}
}

func TestRunnerPerProbeTimeout(t *testing.T) {
	r := &Runner{
		ProbeTimeout:   50 * time.Millisecond,
		OverallTimeout: 5 * time.Second,
		newProber: fakeFactory(map[Kind]*fakeProber{
			KindWhois: {
				kind:   KindWhois,
				delay:  time.Minute,
				result: Result{Status: StatusSuccess, Whois: &WhoisPayload{}},
			},
		}),
	}

	report, err := r.Run(context.Background(), "example.com", []Kind{KindWhois, KindPing})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := report.Results[KindWhois].Status; got != StatusTimedOut {
		t.Errorf("whois status = %q, want %q", got, StatusTimedOut)
	}
	if got := report.Results[KindPing].Status; got != StatusSuccess {
		t.Errorf("ping status = %q, want %q", got, StatusSuccess)
	}
}

func TestRunnerInvalidTargetFailsFast(t *testing.T) {
	ran := false
	r := &Runner{
		newProber: func(k Kind, _ Config) Prober {
			ran = true
			return &fakeProber{kind: k, result: Result{Status: StatusSuccess}}
		},
	}

	for _, target := range []string{"", "   ", "bad host!", "-leading.example.com"} {
		report, err := r.Run(context.Background(), target, []Kind{KindPing})
		if err == nil {
			t.Errorf("Run(%q) expected error, got report %+v", target, report)
			continue
		}
		if !IsConfigurationError(err) {
			t.Errorf("Run(%q) error = %v, want ConfigurationError", target, err)
		}
		if report != nil {
			t.Errorf("Run(%q) returned a partial report", target)
		}
	}
	if ran {
		t.Error("probe executor ran despite invalid target")
	}
}

func TestRunnerUnknownProbeRejected(t *testing.T) {
	r := &Runner{newProber: fakeFactory(nil)}
	_, err := r.Run(context.Background(), "example.com", []Kind{Kind("banana")})
	if !IsConfigurationError(err) {
		t.Fatalf("error = %v, want ConfigurationError", err)
	}
}

func TestRunnerNoProbesRejected(t *testing.T) {
	r := &Runner{newProber: fakeFactory(nil)}
	_, err := r.Run(context.Background(), "example.com", nil)
	if !IsConfigurationError(err) {
		t.Fatalf("error = %v, want ConfigurationError", err)
	}
}

func TestRunnerDeduplicatesKinds(t *testing.T) {
	r := &Runner{newProber: fakeFactory(nil)}
	report, err := r.Run(context.Background(), "example.com", []Kind{KindPing, KindPing, KindPortScan})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Results) != 2 {
		t.Errorf("got %d results, want 2", len(report.Results))
	}
}

func TestRunnerSkipsInapplicableProbes(t *testing.T) {
	r := &Runner{newProber: fakeFactory(nil)}
	report, err := r.Run(context.Background(), "192.0.2.10", []Kind{KindWhois, KindDNS, KindPing})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, k := range []Kind{KindWhois, KindDNS} {
		res := report.Results[k]
		if res.Status != StatusSkipped {
			t.Errorf("%s status = %q, want %q for IP target", k, res.Status, StatusSkipped)
		}
		if res.Reason == "" {
			t.Errorf("%s skipped without a reason", k)
		}
		if res.Error != "" {
			t.Errorf("%s Error = %q, want empty: skips carry a reason, not an error", k, res.Error)
		}
	}
	if got := report.Results[KindPing].Status; got != StatusSuccess {
		t.Errorf("ping status = %q, want %q", got, StatusSuccess)
	}
}

func TestRunnerContainsPanics(t *testing.T) {
	r := &Runner{
		newProber: fakeFactory(map[Kind]*fakeProber{
			KindDNS: {kind: KindDNS, panicMsg: "resolver exploded"},
		}),
	}

	report, err := r.Run(context.Background(), "example.com", []Kind{KindDNS, KindPing})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := report.Results[KindDNS].Status; got != StatusFailed {
		t.Errorf("panicking probe status = %q, want %q", got, StatusFailed)
	}
	if got := report.Results[KindPing].Status; got != StatusSuccess {
		t.Errorf("sibling probe status = %q, want %q", got, StatusSuccess)
	}
}

func TestRunnerRepeatInvocationsStable(t *testing.T) {
	r := &Runner{newProber: fakeFactory(nil)}
	kinds := []Kind{KindPing, KindPortScan, KindCertificate}

	first, err := r.Run(context.Background(), "example.com", kinds)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	second, err := r.Run(context.Background(), "example.com", kinds)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if first.OverallStatus != second.OverallStatus {
		t.Errorf("overall status differs between runs: %q vs %q", first.OverallStatus, second.OverallStatus)
	}
	for k, res := range first.Results {
		other, ok := second.Results[k]
		if !ok {
			t.Errorf("second run missing probe %q", k)
			continue
		}
		if res.Status != other.Status {
			t.Errorf("probe %q status differs: %q vs %q", k, res.Status, other.Status)
		}
	}
}

func TestRunnerOnResultCallback(t *testing.T) {
	var seen []string
	r := &Runner{
		newProber: fakeFactory(nil),
		OnResult:  func(res Result) { seen = append(seen, res.Name) },
	}

	_, err := r.Run(context.Background(), "example.com", []Kind{KindPing, KindPortScan})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("OnResult fired %d times, want 2", len(seen))
	}
}
