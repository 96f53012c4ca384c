package batch

import (
	"sync"
	"time"

	"assetgen/internal/domain"
)

// collector holds one slot per catalog entry. Slots start as pending and are
// filled exactly once; later records for the same entry are ignored.
type collector struct {
	mu         sync.Mutex
	runID      string
	outputRoot string
	startedAt  time.Time
	index      map[string]int
	slots      []domain.JobOutcome
	done       []bool
}

func newCollector(runID, outputRoot string, startedAt time.Time, specs []domain.JobSpec) *collector {
	c := &collector{
		runID:      runID,
		outputRoot: outputRoot,
		startedAt:  startedAt,
		index:      make(map[string]int, len(specs)),
		slots:      make([]domain.JobOutcome, len(specs)),
		done:       make([]bool, len(specs)),
	}
	for i, spec := range specs {
		c.index[spec.AssetID] = i
		c.slots[i] = domain.JobOutcome{AssetID: spec.AssetID, State: domain.OutcomePending}
	}
	return c
}

// submitted attaches the remote job id to a pending slot.
func (c *collector) submitted(assetID, jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[assetID]; ok && !c.done[i] {
		c.slots[i].RemoteJobID = jobID
	}
}

// polled records the attempts used and the artifact url of a job waiting for
// download.
func (c *collector) polled(assetID string, attempts int, artifactURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[assetID]; ok && !c.done[i] {
		c.slots[i].Attempts = attempts
		c.slots[i].ArtifactURL = artifactURL
	}
}

// record stores the final outcome. It reports false when the entry is unknown
// or already final.
func (c *collector) record(o domain.JobOutcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[o.AssetID]
	if !ok || c.done[i] {
		return false
	}
	c.slots[i] = o
	c.done[i] = true
	return true
}

// snapshot copies the current state into a report. Entries still in flight
// carry state pending.
func (c *collector) snapshot(finishedAt time.Time) *domain.Report {
	c.mu.Lock()
	outcomes := make([]domain.JobOutcome, len(c.slots))
	copy(outcomes, c.slots)
	c.mu.Unlock()

	report := domain.NewReport(c.runID, outcomes)
	report.StartedAt = c.startedAt
	report.FinishedAt = finishedAt
	report.OutputRoot = c.outputRoot
	return report
}
