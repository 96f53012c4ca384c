// Package batch sequences a catalog through submission, polling and download
// and aggregates exactly one outcome per catalog entry.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
	"assetgen/internal/poller"
	"assetgen/internal/storage"
)

var (
	// ErrDuplicateAsset is returned when two catalog entries share an id.
	ErrDuplicateAsset = errors.New("batch: duplicate asset id")
	// ErrOutputRoot is returned when the output root cannot be created.
	ErrOutputRoot = errors.New("batch: output root unavailable")
	// ErrJobCancelled is the cancellation cause of a job stopped through CancelJob.
	ErrJobCancelled = errors.New("batch: job cancelled on request")
	// ErrRunInProgress is returned when Run is called while another Run is active.
	ErrRunInProgress = errors.New("batch: run already in progress")
)

// Submitter creates remote jobs.
type Submitter interface {
	Submit(ctx context.Context, spec domain.JobSpec) (string, error)
}

// Fetcher downloads a finished artifact to a local path.
type Fetcher interface {
	FetchArtifact(ctx context.Context, artifactURL, dst string) error
}

// JobPoller drives one submitted job to a terminal local state.
type JobPoller interface {
	Run(ctx context.Context, handle domain.JobHandle) poller.Result
}

// Options configures an Orchestrator.
type Options struct {
	Submitter Submitter
	Poller    JobPoller
	Fetcher   Fetcher
	Store     *storage.FileStore
	// Concurrency caps the number of jobs polled at once. Values below 1 mean 1.
	Concurrency     int
	DownloadTimeout time.Duration
	Logger          *infra.Logger
	// RunID overrides the generated run identifier.
	RunID string
	Now   func() time.Time
}

// Orchestrator runs batches. One Orchestrator runs one batch at a time;
// Snapshot and CancelJob are safe to call from other goroutines while it runs.
type Orchestrator struct {
	submitter       Submitter
	poller          JobPoller
	fetcher         Fetcher
	store           *storage.FileStore
	concurrency     int
	downloadTimeout time.Duration
	logger          *infra.Logger
	runID           string
	now             func() time.Time

	running atomic.Bool
	current atomic.Pointer[collector]

	mu      sync.Mutex
	cancels map[string]context.CancelCauseFunc
}

type job struct {
	spec     domain.JobSpec
	handle   domain.JobHandle
	url      string
	attempts int
}

// New validates the options and constructs an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Submitter == nil || opts.Poller == nil || opts.Fetcher == nil {
		return nil, errors.New("batch: submitter, poller and fetcher are required")
	}
	if opts.Store == nil {
		return nil, errors.New("batch: file store is required")
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	runID := strings.TrimSpace(opts.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Orchestrator{
		submitter:       opts.Submitter,
		poller:          opts.Poller,
		fetcher:         opts.Fetcher,
		store:           opts.Store,
		concurrency:     concurrency,
		downloadTimeout: opts.DownloadTimeout,
		logger:          logger,
		runID:           runID,
		now:             now,
		cancels:         make(map[string]context.CancelCauseFunc),
	}, nil
}

// RunID returns the identifier stamped on this orchestrator's reports.
func (o *Orchestrator) RunID() string { return o.runID }

// Run processes every spec and returns the final report. The only errors are
// the ones that make a whole run impossible; per-entry failures end up as
// outcomes. Cancelling ctx stops submission and polling, while jobs that
// already finished polling still download.
func (o *Orchestrator) Run(ctx context.Context, specs []domain.JobSpec) (*domain.Report, error) {
	if err := checkUnique(specs); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.store.BasePath(), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputRoot, err)
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	coll := newCollector(o.runID, o.store.BasePath(), o.now().UTC(), specs)
	o.current.Store(coll)

	log := o.logger.With().Str("run_id", o.runID).Logger()
	log.Info().Int("entries", len(specs)).Str("output_root", o.store.BasePath()).Msg("batch: run started")

	submitted := o.submitAll(ctx, coll, specs)
	polled := o.pollAll(ctx, coll, submitted)
	o.downloadAll(ctx, coll, polled)

	report := coll.snapshot(o.now().UTC())
	log.Info().
		Int("total", report.Counts.Total).
		Int("succeeded", report.Counts.Succeeded).
		Int("failed", report.Counts.Failed).
		Int("timed_out", report.Counts.TimedOut).
		Int("cancelled", report.Counts.Cancelled).
		Int("submission_errors", report.Counts.SubmissionErrors).
		Int("download_errors", report.Counts.DownloadErrors).
		Msg("batch: run finished")
	return report, nil
}

// Snapshot returns the live state of the current or most recent run, or nil
// before the first run.
func (o *Orchestrator) Snapshot() *domain.Report {
	coll := o.current.Load()
	if coll == nil {
		return nil
	}
	return coll.snapshot(o.now().UTC())
}

// CancelJob stops polling of one job. It reports false when the job is not
// queued for polling or its polling already finished. A job it reports true
// for is always recorded as cancelled.
func (o *Orchestrator) CancelJob(assetID string) bool {
	o.mu.Lock()
	cancel, ok := o.cancels[assetID]
	if ok {
		cancel(ErrJobCancelled)
	}
	o.mu.Unlock()
	if !ok {
		return false
	}
	o.logger.Info().Str("asset_id", assetID).Msg("batch: job cancellation requested")
	return true
}

func (o *Orchestrator) submitAll(ctx context.Context, coll *collector, specs []domain.JobSpec) []job {
	jobs := make([]job, 0, len(specs))
	for _, spec := range specs {
		log := o.logger.With().Str("asset_id", spec.AssetID).Logger()
		if ctx.Err() != nil {
			coll.record(domain.JobOutcome{
				AssetID: spec.AssetID,
				State:   domain.OutcomeCancelled,
				Error:   fmt.Sprintf("not submitted: %v", context.Cause(ctx)),
			})
			continue
		}

		jobID, err := o.submitter.Submit(ctx, spec)
		if err == nil && strings.TrimSpace(jobID) == "" {
			err = errors.New("empty job id")
		}
		if err != nil && ctx.Err() != nil {
			coll.record(domain.JobOutcome{
				AssetID: spec.AssetID,
				State:   domain.OutcomeCancelled,
				Error:   fmt.Sprintf("submission interrupted: %v", context.Cause(ctx)),
			})
			continue
		}
		if err != nil {
			log.Warn().Err(err).Msg("batch: submission failed")
			coll.record(domain.JobOutcome{
				AssetID: spec.AssetID,
				State:   domain.OutcomeSubmissionError,
				Error:   err.Error(),
			})
			continue
		}

		log.Info().Str("job_id", jobID).Msg("batch: submitted")
		coll.submitted(spec.AssetID, jobID)
		jobs = append(jobs, job{spec: spec, handle: domain.JobHandle{AssetID: spec.AssetID, RemoteJobID: jobID}})
	}
	return jobs
}

func (o *Orchestrator) pollAll(ctx context.Context, coll *collector, jobs []job) []job {
	results := make([]poller.Result, len(jobs))
	jobCtxs := make([]context.Context, len(jobs))

	o.mu.Lock()
	for i, j := range jobs {
		jobCtx, cancel := context.WithCancelCause(ctx)
		jobCtxs[i] = jobCtx
		o.cancels[j.spec.AssetID] = cancel
	}
	o.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i := range jobs {
		g.Go(func() error {
			res := o.poller.Run(jobCtxs[i], jobs[i].handle)
			o.release(jobs[i].spec.AssetID)
			// A cancellation accepted before release wins over a late success.
			if res.State == poller.StateSucceeded && errors.Is(context.Cause(jobCtxs[i]), ErrJobCancelled) {
				res = poller.Result{State: poller.StateCancelled, Attempts: res.Attempts, Last: res.Last, Err: ErrJobCancelled}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	polled := make([]job, 0, len(jobs))
	for i, j := range jobs {
		res := results[i]
		out := domain.JobOutcome{
			AssetID:     j.spec.AssetID,
			RemoteJobID: j.handle.RemoteJobID,
			Attempts:    res.Attempts,
		}
		switch res.State {
		case poller.StateSucceeded:
			coll.polled(j.spec.AssetID, res.Attempts, res.ArtifactURL)
			j.url = res.ArtifactURL
			j.attempts = res.Attempts
			polled = append(polled, j)
			continue
		case poller.StateTimedOut:
			out.State = domain.OutcomeTimedOut
		case poller.StateCancelled:
			out.State = domain.OutcomeCancelled
		default:
			out.State = domain.OutcomeFailed
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		coll.record(out)
	}
	return polled
}

func (o *Orchestrator) release(assetID string) {
	o.mu.Lock()
	cancel, ok := o.cancels[assetID]
	delete(o.cancels, assetID)
	o.mu.Unlock()
	if ok {
		cancel(nil)
	}
}

func (o *Orchestrator) downloadAll(ctx context.Context, coll *collector, jobs []job) {
	for _, j := range jobs {
		log := o.logger.With().
			Str("asset_id", j.spec.AssetID).
			Str("job_id", j.handle.RemoteJobID).
			Logger()
		out := domain.JobOutcome{
			AssetID:     j.spec.AssetID,
			RemoteJobID: j.handle.RemoteJobID,
			ArtifactURL: j.url,
			Attempts:    j.attempts,
		}

		dst, err := o.store.Resolve(j.spec.ArtifactKey())
		if err == nil {
			err = o.fetch(ctx, j.url, dst)
		}
		if err != nil {
			log.Warn().Err(err).Str("artifact_url", j.url).Msg("batch: download failed")
			out.State = domain.OutcomeDownloadError
			out.Error = err.Error()
			coll.record(out)
			continue
		}

		log.Info().Str("path", dst).Msg("batch: artifact saved")
		out.State = domain.OutcomeSucceeded
		out.Path = dst
		coll.record(out)
	}
}

// fetch is detached from the run's cancellation and bounded by the download
// timeout only.
func (o *Orchestrator) fetch(ctx context.Context, url, dst string) error {
	dctx := context.WithoutCancel(ctx)
	if o.downloadTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(dctx, o.downloadTimeout)
		defer cancel()
	}
	return o.fetcher.FetchArtifact(dctx, url, dst)
}

func checkUnique(specs []domain.JobSpec) error {
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if _, ok := seen[spec.AssetID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateAsset, spec.AssetID)
		}
		seen[spec.AssetID] = struct{}{}
	}
	return nil
}
