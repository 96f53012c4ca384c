package domain

import "time"

// Tally counts outcomes per state.
type Tally struct {
	Total            int `json:"total" yaml:"total"`
	Succeeded        int `json:"succeeded" yaml:"succeeded"`
	Failed           int `json:"failed" yaml:"failed"`
	TimedOut         int `json:"timed_out" yaml:"timed_out"`
	Cancelled        int `json:"cancelled" yaml:"cancelled"`
	SubmissionErrors int `json:"submission_errors" yaml:"submission_errors"`
	DownloadErrors   int `json:"download_errors" yaml:"download_errors"`
	Pending          int `json:"pending,omitempty" yaml:"pending,omitempty"`
}

// Add counts one outcome.
func (t *Tally) Add(state OutcomeState) {
	t.Total++
	switch state {
	case OutcomeSucceeded:
		t.Succeeded++
	case OutcomeFailed:
		t.Failed++
	case OutcomeTimedOut:
		t.TimedOut++
	case OutcomeCancelled:
		t.Cancelled++
	case OutcomeSubmissionError:
		t.SubmissionErrors++
	case OutcomeDownloadError:
		t.DownloadErrors++
	case OutcomePending:
		t.Pending++
	}
}

// Report is the final summary of a batch run. Outcomes are in catalog order.
type Report struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	OutputRoot string       `json:"output_root" yaml:"output_root"`
	Counts     Tally        `json:"counts" yaml:"counts"`
	Outcomes   []JobOutcome `json:"outcomes" yaml:"outcomes"`
}

// NewReport builds a report and its counters from the given outcomes.
func NewReport(runID string, outcomes []JobOutcome) *Report {
	r := &Report{RunID: runID, Outcomes: outcomes}
	for _, o := range outcomes {
		r.Counts.Add(o.State)
	}
	return r
}
