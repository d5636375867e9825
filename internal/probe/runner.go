package probe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Runner schedules a requested set of probes against one target with
// bounded concurrency, a global launch rate limit, a per-probe timeout
// and an overall invocation deadline.
type Runner struct {
	Concurrency    int           // max probes in flight; default 4
	RateLimit      int           // probe launches per second; default 5
	ProbeTimeout   time.Duration // per-probe deadline; default DefaultProbeTimeout
	OverallTimeout time.Duration // whole-invocation budget; default DefaultOverallTimeout
	Config         Config

	// Logger is optional; a nil logger disables scheduler logging.
	Logger *zap.SugaredLogger

	// OnResult, when set, is invoked from the collector as each probe
	// reports, in completion order. Used by the CLI for progress output.
	OnResult func(Result)

	// newProber is overridable in tests to substitute fake executors.
	newProber func(Kind, Config) Prober
}

type keyedResult struct {
	kind   Kind
	result Result
}

// Run validates the invocation, dispatches every applicable probe and
// returns the assembled Report. Only a ConfigurationError is returned
// as an error; probe failures and timeouts are data inside the Report.
func (r *Runner) Run(ctx context.Context, rawTarget string, kinds []Kind) (*Report, error) {
	target, err := ParseTarget(rawTarget)
	if err != nil {
		return nil, err
	}
	requested, err := dedupeKinds(kinds)
	if err != nil {
		return nil, err
	}

	factory := r.newProber
	if factory == nil {
		factory = proberFor
	}

	cfg := r.Config
	if cfg.Timeout == 0 {
		cfg.Timeout = r.ProbeTimeout
	}

	overall := r.OverallTimeout
	if overall <= 0 {
		overall = DefaultOverallTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, overall)
	defer cancel()

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	launchRate := r.RateLimit
	if launchRate <= 0 {
		launchRate = 5
	}
	limiter := rate.NewLimiter(rate.Limit(launchRate), launchRate)

	asm := newAssembler(target.Raw, requested)
	results := make(chan keyedResult, len(requested))
	sem := make(chan struct{}, concurrency)
	launched := 0

	for _, kind := range requested {
		if ok, reason := applicable(kind, target); !ok {
			asm.add(kind, skippedResult(kind, reason))
			r.notify(asm.report.Results[kind])
			continue
		}

		prober := factory(kind, cfg)
		if prober == nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("no executor for probe %q", kind)}
		}

		launched++
		go func(kind Kind, prober Prober) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-runCtx.Done():
				results <- keyedResult{kind, failedResult(kind, runCtx.Err())}
				return
			}
			if err := limiter.Wait(runCtx); err != nil {
				results <- keyedResult{kind, failedResult(kind, err)}
				return
			}

			probeCtx, probeCancel := context.WithTimeout(runCtx, cfg.timeout())
			defer probeCancel()

			start := time.Now()
			res := runIsolated(probeCtx, prober, target)
			res.Duration = time.Since(start)
			results <- keyedResult{kind, res}
		}(kind, prober)
	}

	// Collect until every launched probe reports or the overall deadline
	// expires. Late probes are abandoned: cancellation is best-effort and
	// an underlying dial may finish in the background; its result is
	// discarded because the buffered channel is simply never read again.
	for received := 0; received < launched; received++ {
		select {
		case kr := <-results:
			asm.add(kr.kind, kr.result)
			r.notify(asm.report.Results[kr.kind])
			if r.Logger != nil {
				r.Logger.Infow("probe finished",
					"probe", kr.kind,
					"status", kr.result.Status,
					"duration", kr.result.Duration,
				)
			}
		case <-runCtx.Done():
			asm.markMissing()
			if r.Logger != nil {
				r.Logger.Warnw("overall timeout reached, abandoning pending probes",
					"target", target.Host,
					"pending", launched-received,
				)
			}
			return asm.finalize(), nil
		}
	}

	return asm.finalize(), nil
}

func (r *Runner) notify(res Result) {
	if r.OnResult != nil {
		r.OnResult(res)
	}
}

// runIsolated executes a single prober behind a recover so a panicking
// executor is recorded as a failed result instead of taking down the
// whole invocation.
func runIsolated(ctx context.Context, p Prober, target Target) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{
				Status: StatusFailed,
				Error:  fmt.Sprintf("probe %s panicked: %v", p.Kind(), rec),
			}
		}
	}()
	return p.Probe(ctx, target)
}

// dedupeKinds validates the requested probe names and removes
// duplicates while preserving the caller's order.
func dedupeKinds(kinds []Kind) ([]Kind, error) {
	if len(kinds) == 0 {
		return nil, &ConfigurationError{Reason: ErrNoProbes.Error()}
	}
	known := make(map[Kind]bool, len(AllKinds()))
	for _, k := range AllKinds() {
		known[k] = true
	}
	seen := make(map[Kind]bool, len(kinds))
	out := make([]Kind, 0, len(kinds))
	for _, k := range kinds {
		if !known[k] {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown probe %q", k)}
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

// ParseKinds converts a list of probe names (e.g. from a CLI flag) into
// validated Kinds.
func ParseKinds(names []string) ([]Kind, error) {
	if len(names) == 0 {
		return nil, &ConfigurationError{Reason: ErrNoProbes.Error()}
	}
	kinds := make([]Kind, 0, len(names))
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
