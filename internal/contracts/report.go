package contracts

import (
	"sort"
	"time"
)

// ResultCategory is how a target counts in the run summary
type ResultCategory string

const (
	CategorySucceeded ResultCategory = "succeeded"
	CategoryFailed    ResultCategory = "failed"
	CategorySkipped   ResultCategory = "skipped" // benign NotFound on a closed day
	CategoryPresent   ResultCategory = "present" // already on disk, not fetched
	CategoryPlanned   ResultCategory = "planned" // dry run
)

// TargetResult is the recorded outcome of one target
type TargetResult struct {
	Date     TradingDate    `json:"date"`
	Kind     string         `json:"kind"`
	Category ResultCategory `json:"category"`
	Status   string         `json:"status,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	URL      string         `json:"url,omitempty"`
	Bytes    int64          `json:"bytes,omitempty"`
	Attempts int            `json:"attempts,omitempty"`
	Planned  []ResolvedURL  `json:"planned,omitempty"`
}

// DateReport aggregates results for one date
type DateReport struct {
	Date      TradingDate    `json:"date"`
	Closed    bool           `json:"closed"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Present   int            `json:"present"`
	Planned   int            `json:"planned"`
	Results   []TargetResult `json:"results"`
}

// Totals are run-wide counters
type Totals struct {
	Attempted int   `json:"attempted"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Skipped   int   `json:"skipped"`
	Present   int   `json:"present"`
	Planned   int   `json:"planned"`
	Bytes     int64 `json:"bytes"`
}

// SyncReport summarizes one orchestrator pass. Built fresh per run and
// never persisted; callers serialize access while a run is in flight.
// ⭐ SSOT: 실행 결과 요약은 이 타입으로만 전달
type SyncReport struct {
	RunID      string        `json:"run_id"`
	DryRun     bool          `json:"dry_run"`
	Force      bool          `json:"force"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Dates      []*DateReport `json:"dates"`

	index map[TradingDate]*DateReport
}

// NewSyncReport creates an empty report
func NewSyncReport(runID string, dryRun, force bool) *SyncReport {
	return &SyncReport{
		RunID:     runID,
		DryRun:    dryRun,
		Force:     force,
		StartedAt: time.Now(),
		index:     make(map[TradingDate]*DateReport),
	}
}

// AddDate registers a date so it appears even with no targets
func (r *SyncReport) AddDate(d TradingDate, closed bool) *DateReport {
	if dr, ok := r.index[d]; ok {
		return dr
	}
	dr := &DateReport{Date: d, Closed: closed}
	r.index[d] = dr
	r.Dates = append(r.Dates, dr)
	return dr
}

// Record adds a target result to its date
func (r *SyncReport) Record(res TargetResult) {
	dr := r.AddDate(res.Date, false)
	dr.Results = append(dr.Results, res)

	switch res.Category {
	case CategorySucceeded:
		dr.Succeeded++
	case CategoryFailed:
		dr.Failed++
	case CategorySkipped:
		dr.Skipped++
	case CategoryPresent:
		dr.Present++
	case CategoryPlanned:
		dr.Planned++
	}
}

// Finish stamps the end time and orders dates newest first
func (r *SyncReport) Finish() {
	r.FinishedAt = time.Now()
	sort.SliceStable(r.Dates, func(i, j int) bool {
		return r.Dates[i].Date.After(r.Dates[j].Date)
	})
}

// Date returns the report for d, if any
func (r *SyncReport) Date(d TradingDate) (*DateReport, bool) {
	dr, ok := r.index[d]
	return dr, ok
}

// Totals sums all dates
func (r *SyncReport) Totals() Totals {
	var t Totals
	for _, dr := range r.Dates {
		t.Succeeded += dr.Succeeded
		t.Failed += dr.Failed
		t.Skipped += dr.Skipped
		t.Present += dr.Present
		t.Planned += dr.Planned
		for _, res := range dr.Results {
			t.Bytes += res.Bytes
		}
	}
	t.Attempted = t.Succeeded + t.Failed + t.Skipped
	return t
}

// Failures lists every failed target with its reason
func (r *SyncReport) Failures() []TargetResult {
	var out []TargetResult
	for _, dr := range r.Dates {
		for _, res := range dr.Results {
			if res.Category == CategoryFailed {
				out = append(out, res)
			}
		}
	}
	return out
}

// HasFailures drives the non-zero exit status
func (r *SyncReport) HasFailures() bool {
	return r.Totals().Failed > 0
}

// Duration is the wall time of the run
func (r *SyncReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
