// Package poller tracks asynchronous backend jobs: it fetches status at a
// fixed cadence until a terminal state is observed and delivers exactly one
// outcome to the caller.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"prepdash/internal/job"
	"prepdash/internal/logger"
	"prepdash/internal/metrics"
)

var (
	// ErrAlreadyPolling is returned when a second poll loop is requested
	// for a job id that is still being polled
	ErrAlreadyPolling = errors.New("job is already being polled")
	// ErrDeadlineExceeded is returned when a job does not reach a terminal
	// state within the configured deadline
	ErrDeadlineExceeded = errors.New("polling deadline exceeded")
)

// StatusFetcher fetches the current status of a job. A returned error means
// the fetch itself failed (network, non-2xx, malformed body); backend-reported
// job failure arrives through the response's status field instead.
type StatusFetcher interface {
	JobStatus(ctx context.Context, jobID string) (*job.StatusResponse, error)
}

// ProgressFunc observes non-terminal status responses. It is invoked with
// the backend-reported progress and status label, in response order, and
// never after the poll has settled.
type ProgressFunc func(percent int, status string)

// Config tunes the poll loop
type Config struct {
	// Interval is the delay between successful status fetches
	Interval time.Duration
	// RetryBackoff is the delay before retrying a failed status fetch
	RetryBackoff time.Duration
	// MaxRetries is how many consecutive fetch failures are tolerated
	// before the poll settles with the last error. 0 means fail fast.
	MaxRetries int
	// Deadline bounds the total wait for one job. 0 disables the bound.
	Deadline time.Duration
	// FailureStatus is the backend's label for failed jobs
	FailureStatus job.JobStatus
}

// DefaultConfig matches the preprocessing backend: 1s cadence, 2s retry
// backoff with three retries, a 10 minute deadline, and "error" as the
// failure label.
func DefaultConfig() Config {
	return Config{
		Interval:      1 * time.Second,
		RetryBackoff:  2 * time.Second,
		MaxRetries:    3,
		Deadline:      10 * time.Minute,
		FailureStatus: job.StatusError,
	}
}

// Poller runs poll loops for backend jobs. It is safe for concurrent use;
// each job id may have at most one loop active at a time.
type Poller struct {
	fetcher StatusFetcher
	cfg     Config
	log     logger.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates a poller. Zero-valued config fields fall back to defaults;
// a zero Deadline is kept as-is and means unbounded.
func New(fetcher StatusFetcher, cfg Config) *Poller {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.FailureStatus == "" {
		cfg.FailureStatus = def.FailureStatus
	}

	return &Poller{
		fetcher:  fetcher,
		cfg:      cfg,
		log:      logger.Default().WithComponent(logger.ComponentPoller),
		inFlight: make(map[string]struct{}),
	}
}

// Wait polls the job until it reaches a terminal state and returns its
// result, or an error when the job failed, the deadline expired, the
// transport retry budget ran out, or ctx was cancelled. It settles exactly
// once per call and issues no further fetches after settling.
func (p *Poller) Wait(ctx context.Context, jobID string, onProgress ProgressFunc) (*job.JobResult, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id cannot be empty")
	}
	if !p.acquire(jobID) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPolling, jobID)
	}
	defer p.release(jobID)

	waitCtx := ctx
	if p.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.cfg.Deadline)
		defer cancel()
	}

	started := time.Now()
	failures := 0

	for {
		resp, err := p.fetcher.JobStatus(waitCtx, jobID)
		if err != nil {
			if settled := p.settleCancelled(ctx, waitCtx, jobID); settled != nil {
				return nil, settled
			}

			failures++
			if failures > p.cfg.MaxRetries {
				p.log.Error("giving up on job after repeated fetch failures",
					"job_id", jobID, "attempts", failures, "error", err)
				return nil, fmt.Errorf("status fetch for job %s failed after %d attempts: %w", jobID, failures, err)
			}

			metrics.Default().RecordTransportRetry()
			p.log.Warn("status fetch failed, retrying",
				"job_id", jobID, "attempt", failures, "backoff", p.cfg.RetryBackoff, "error", err)
			if err := p.pause(ctx, waitCtx, jobID, p.cfg.RetryBackoff); err != nil {
				return nil, err
			}
			continue
		}

		failures = 0
		metrics.Default().RecordPollCycle()

		switch resp.Status {
		case job.StatusCompleted:
			p.log.Info("job completed", "job_id", jobID, "duration", time.Since(started))
			return &job.JobResult{
				JobID:       jobID,
				Status:      job.StatusCompleted,
				Result:      resp.Result,
				CompletedAt: time.Now(),
				Duration:    time.Since(started),
			}, nil

		case p.cfg.FailureStatus:
			msg := resp.Error
			if msg == "" {
				msg = "job failed without an error message"
			}
			p.log.Error("job failed", "job_id", jobID, "error", msg)
			return nil, &job.ResultError{Message: msg}
		}

		if onProgress != nil {
			onProgress(resp.Progress, string(resp.Status))
		}

		if err := p.pause(ctx, waitCtx, jobID, p.cfg.Interval); err != nil {
			return nil, err
		}
	}
}

// pause sleeps for d or until the poll is cancelled or times out
func (p *Poller) pause(ctx, waitCtx context.Context, jobID string, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-waitCtx.Done():
		return p.settleCancelled(ctx, waitCtx, jobID)
	}
}

// settleCancelled distinguishes caller cancellation from deadline expiry.
// Returns nil when neither context is done (the fetch failed on its own).
func (p *Poller) settleCancelled(ctx, waitCtx context.Context, jobID string) error {
	if ctx.Err() != nil {
		p.log.Info("polling cancelled", "job_id", jobID)
		return ctx.Err()
	}
	if waitCtx.Err() != nil {
		p.log.Error("polling deadline exceeded", "job_id", jobID, "deadline", p.cfg.Deadline)
		return fmt.Errorf("%w: job %s still not terminal after %s", ErrDeadlineExceeded, jobID, p.cfg.Deadline)
	}
	return nil
}

// acquire marks a job id as having an active poll loop
func (p *Poller) acquire(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.inFlight[jobID]; exists {
		return false
	}
	p.inFlight[jobID] = struct{}{}
	return true
}

// release frees a job id for future poll loops
func (p *Poller) release(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, jobID)
}
