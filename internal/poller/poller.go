// Package poller drives a single remote job from submission to a terminal
// local state by polling its status at a fixed interval.
package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

const (
	DefaultInterval         = 10 * time.Second
	DefaultMaxAttempts      = 120
	DefaultMaxUnknownStreak = 30
)

var (
	// ErrArtifactMissing is reported when the service claims success without
	// an artifact reference.
	ErrArtifactMissing = errors.New("poller: succeeded status without artifact url")
	// ErrStatusUnreadable is reported when too many consecutive ticks return an
	// Unknown status.
	ErrStatusUnreadable = errors.New("poller: status unreadable")
	// ErrRemoteFailed is reported when the service marks the job failed.
	ErrRemoteFailed = errors.New("poller: remote job failed")
	// ErrTimedOut is reported when the attempt budget runs out.
	ErrTimedOut = errors.New("poller: attempt budget exhausted")
)

// State is the local view of a polled job.
type State string

const (
	StateSubmitted State = "submitted"
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

// StatusReader is the part of the remote client the poller needs.
type StatusReader interface {
	GetStatus(ctx context.Context, jobID string) (domain.PollStatus, error)
}

// WaitFunc suspends for d or until ctx is done, whichever comes first.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Options configures a Poller.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	// MaxUnknownStreak caps consecutive Unknown statuses; 0 disables the cap.
	// Failed status calls are retried until MaxAttempts and never count here.
	MaxUnknownStreak int
	Logger           *infra.Logger
	Wait             WaitFunc
}

// Result is the terminal outcome of one Run.
type Result struct {
	State       State
	ArtifactURL string
	Attempts    int
	Last        domain.PollStatus
	Err         error
}

// Poller runs the status loop for one job at a time. It holds no per-job
// state, so one Poller may serve concurrent Runs.
type Poller struct {
	client      StatusReader
	interval    time.Duration
	maxAttempts int
	maxUnknown  int
	logger      *infra.Logger
	wait        WaitFunc
}

// New constructs a Poller with defaults applied.
func New(client StatusReader, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	maxUnknown := opts.MaxUnknownStreak
	if maxUnknown < 0 {
		maxUnknown = 0
	}
	wait := opts.Wait
	if wait == nil {
		wait = Sleep
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Poller{
		client:      client,
		interval:    interval,
		maxAttempts: maxAttempts,
		maxUnknown:  maxUnknown,
		logger:      logger,
		wait:        wait,
	}
}

// Sleep is the default WaitFunc. It parks on a timer and returns early with
// ctx.Err() on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run polls handle until the remote job is terminal, the attempt budget is
// spent, or ctx is cancelled. Cancellation is checked before every wait and
// before every status call; the remote job is never touched.
func (p *Poller) Run(ctx context.Context, handle domain.JobHandle) Result {
	log := p.logger.With().
		Str("asset_id", handle.AssetID).
		Str("job_id", handle.RemoteJobID).
		Logger()

	state := StateSubmitted
	streak := 0
	var last domain.PollStatus

	cancelled := func(attempts int) Result {
		err := context.Cause(ctx)
		log.Info().Int("attempts", attempts).Str("state", string(state)).Msg("poller: cancelled")
		return Result{State: StateCancelled, Attempts: attempts, Last: last, Err: err}
	}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return cancelled(attempt - 1)
		}
		if err := p.wait(ctx, p.interval); err != nil || ctx.Err() != nil {
			return cancelled(attempt - 1)
		}

		status, err := p.client.GetStatus(ctx, handle.RemoteJobID)
		if err != nil {
			if ctx.Err() != nil {
				return cancelled(attempt)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("poller: status check failed, retrying")
			continue
		}

		log.Debug().
			Int("attempt", attempt).
			Str("status", status.RemoteStatus).
			Str("progress", status.Progress).
			Msg("poller: tick")

		switch status.State {
		case domain.PollPending:
			state, streak, last = StatePending, 0, status
		case domain.PollRunning:
			state, streak, last = StateRunning, 0, status
		case domain.PollSucceeded:
			last = status
			if status.ArtifactURL == "" {
				log.Error().Int("attempt", attempt).Msg("poller: success reported without artifact url")
				return Result{State: StateFailed, Attempts: attempt, Last: last, Err: ErrArtifactMissing}
			}
			log.Info().Int("attempts", attempt).Msg("poller: job succeeded")
			return Result{State: StateSucceeded, ArtifactURL: status.ArtifactURL, Attempts: attempt, Last: last}
		case domain.PollFailed:
			last = status
			err := ErrRemoteFailed
			if status.Message != "" {
				err = fmt.Errorf("%w: %s", ErrRemoteFailed, status.Message)
			}
			log.Warn().Int("attempts", attempt).Str("reason", status.Message).Msg("poller: job failed")
			return Result{State: StateFailed, Attempts: attempt, Last: last, Err: err}
		default:
			streak++
			if p.escalate(streak) {
				return Result{State: StateFailed, Attempts: attempt, Last: last,
					Err: fmt.Errorf("%w: %d consecutive unknown statuses", ErrStatusUnreadable, streak)}
			}
		}
	}

	log.Warn().Int("attempts", p.maxAttempts).Str("state", string(state)).Msg("poller: timed out")
	return Result{
		State:    StateTimedOut,
		Attempts: p.maxAttempts,
		Last:     last,
		Err:      fmt.Errorf("%w after %d attempts (last state %s)", ErrTimedOut, p.maxAttempts, state),
	}
}

func (p *Poller) escalate(streak int) bool {
	return p.maxUnknown > 0 && streak >= p.maxUnknown
}
