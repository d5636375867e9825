package probe

import "time"

// Report aggregates every probe outcome of one engine invocation.
// Results always holds one entry per requested probe; a missing key is
// a defect, not a convention. Once Run returns, the Report belongs to
// the caller and is never mutated again.
type Report struct {
	Target        string          `json:"target"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   time.Time       `json:"completed_at"`
	Results       map[Kind]Result `json:"results"`
	OverallStatus Status          `json:"overall_status"`
	ElapsedMS     float64         `json:"elapsed_ms"`
}

// assembler builds the Report as results arrive. It is driven by the
// Runner's collector goroutine only, so it needs no locking; the Report
// is handed out after finalize and never touched afterwards.
type assembler struct {
	report    *Report
	requested []Kind
}

func newAssembler(target string, requested []Kind) *assembler {
	return &assembler{
		report: &Report{
			Target:    target,
			StartedAt: time.Now().UTC(),
			Results:   make(map[Kind]Result, len(requested)),
		},
		requested: requested,
	}
}

func (a *assembler) add(kind Kind, r Result) {
	r.Name = string(kind)
	r.DurationMS = float64(r.Duration) / float64(time.Millisecond)
	a.report.Results[kind] = r
}

func (a *assembler) has(kind Kind) bool {
	_, ok := a.report.Results[kind]
	return ok
}

// markMissing records TimedOut for every requested probe that has not
// reported, used when the overall deadline expires before completion.
func (a *assembler) markMissing() {
	for _, k := range a.requested {
		if !a.has(k) {
			a.add(k, Result{
				Status: StatusTimedOut,
				Error:  "abandoned: overall operation timeout reached",
			})
		}
	}
}

// finalize freezes the report and derives the overall status: Success
// when every non-skipped probe fully succeeded, PartialSuccess when at
// least one produced a payload, Failed otherwise. Skipped probes count
// toward neither side.
func (a *assembler) finalize() *Report {
	var succeeded, partial, failed int
	for _, r := range a.report.Results {
		switch r.Status {
		case StatusSuccess:
			succeeded++
		case StatusPartial:
			partial++
		case StatusFailed, StatusTimedOut:
			failed++
		}
	}

	switch {
	case succeeded > 0 && partial == 0 && failed == 0:
		a.report.OverallStatus = StatusSuccess
	case succeeded+partial > 0:
		a.report.OverallStatus = StatusPartial
	default:
		a.report.OverallStatus = StatusFailed
	}

	a.report.CompletedAt = time.Now().UTC()
	a.report.ElapsedMS = float64(a.report.CompletedAt.Sub(a.report.StartedAt)) / float64(time.Millisecond)
	return a.report
}
