package domain

// PollState is the tagged status of a single remote status read.
type PollState string

const (
	PollPending   PollState = "pending"
	PollRunning   PollState = "running"
	PollSucceeded PollState = "succeeded"
	PollFailed    PollState = "failed"
	PollUnknown   PollState = "unknown"
)

// PollStatus is the normalized result of one status check. ArtifactURL is only
// populated when State is PollSucceeded.
type PollStatus struct {
	State        PollState
	RemoteStatus string
	Progress     string
	ArtifactURL  string
	Message      string
}
