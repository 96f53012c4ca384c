package domain

// OutcomeState is the final classification of one catalog entry.
type OutcomeState string

const (
	OutcomeSucceeded       OutcomeState = "succeeded"
	OutcomeFailed          OutcomeState = "failed"
	OutcomeTimedOut        OutcomeState = "timed_out"
	OutcomeCancelled       OutcomeState = "cancelled"
	OutcomeSubmissionError OutcomeState = "submission_error"
	OutcomeDownloadError   OutcomeState = "download_error"

	// OutcomePending only appears in live snapshots, for entries still in flight.
	OutcomePending OutcomeState = "pending"
)

// JobOutcome records what happened to one catalog entry. Outcomes are built
// once and treated as values afterwards.
type JobOutcome struct {
	AssetID     string       `json:"asset_id" yaml:"asset_id"`
	State       OutcomeState `json:"state" yaml:"state"`
	RemoteJobID string       `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	ArtifactURL string       `json:"artifact_url,omitempty" yaml:"artifact_url,omitempty"`
	Path        string       `json:"path,omitempty" yaml:"path,omitempty"`
	Attempts    int          `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}
