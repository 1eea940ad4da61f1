package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	"golang.org/x/time/rate"
)

var (
	ErrJobLimitReached = errors.New("active job limit reached")
	ErrRunnerClosed    = errors.New("job runner is shut down")
)

// CooldownError rejects a job submitted too soon after the previous one.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("job cooldown active, retry in %s", e.Wait.Round(time.Millisecond))
}

// RangeRunner runs one range ingestion. *RangeIngester implements it.
type RangeRunner interface {
	Prepare(request model.RangeRequest) (model.RangeRequest, error)
	IngestRange(ctx context.Context, request model.RangeRequest, progress ProgressFunc) (*model.RangeResult, error)
}

// Runner admits range ingestion jobs and runs them in the background.
type Runner struct {
	store   JobStore
	ranges  RangeRunner
	config  model.IngestConfig
	limiter *rate.Limiter
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

// NewRunner creates a job runner. At most config.MaxActiveJobs jobs are
// queued or running, and two submissions are config.JobCooldown apart.
func NewRunner(store JobStore, ranges RangeRunner, config model.IngestConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if config.JobCooldown > 0 {
		limit = rate.Every(config.JobCooldown)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:   store,
		ranges:  ranges,
		config:  config,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Submit validates request, admits it and starts the job.
// It returns ErrJobLimitReached or a *CooldownError when the job is not admitted.
func (r *Runner) Submit(ctx context.Context, request model.RangeRequest) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRunnerClosed
	}

	request, err := r.ranges.Prepare(request)
	if err != nil {
		return nil, err
	}

	active, err := r.store.CountActive(ctx)
	if err != nil {
		return nil, helper.NewError("count active jobs", err)
	}
	if r.config.MaxActiveJobs > 0 && active >= r.config.MaxActiveJobs {
		return nil, ErrJobLimitReached
	}

	now := r.now()
	err = r.checkCooldown(ctx, now)
	if err != nil {
		return nil, err
	}

	job := &model.Job{
		ID:        uuid.New(),
		Status:    model.JobStatusQueued,
		Request:   request,
		Progress:  model.JobProgress{Stage: model.StageQueued},
		CreatedAt: now,
	}
	err = r.store.Create(ctx, job)
	if err != nil {
		return nil, helper.NewError("create job", err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(job.ID, request)
	}()

	r.logger.Info("Submitted job", slog.String("job_id", job.ID.String()), slog.String("from", request.FromDate), slog.String("to", request.ToDate))

	return job, nil
}

// checkCooldown consumes a limiter token. A shared store may hold a newer
// job from another process, so its latest creation time is checked too.
func (r *Runner) checkCooldown(ctx context.Context, now time.Time) error {
	if r.config.JobCooldown <= 0 {
		return nil
	}

	latest, ok, err := r.store.LatestCreatedAt(ctx)
	if err != nil {
		return helper.NewError("latest job", err)
	}
	if ok {
		if elapsed := now.Sub(latest); elapsed < r.config.JobCooldown {
			return &CooldownError{Wait: r.config.JobCooldown - elapsed}
		}
	}

	reservation := r.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return &CooldownError{Wait: delay}
	}
	return nil
}

// Get returns a snapshot of a job.
func (r *Runner) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	return r.store.Get(ctx, id)
}

func (r *Runner) run(id uuid.UUID, request model.RangeRequest) {
	r.update(id, func(job *model.Job) {
		started := r.now()
		job.Status = model.JobStatusRunning
		job.StartedAt = &started
	})

	result, err := r.ranges.IngestRange(r.ctx, request, func(progress model.JobProgress) {
		r.update(id, func(job *model.Job) {
			job.Progress = progress
		})
	})

	r.update(id, func(job *model.Job) {
		finished := r.now()
		job.FinishedAt = &finished
		if err != nil {
			job.Status = model.JobStatusFailed
			job.Error = err.Error()
			return
		}
		job.Status = model.JobStatusCompleted
		job.Result = result
	})

	if err != nil {
		r.logger.Error("Job failed", slog.String("job_id", id.String()), slog.String("error", err.Error()))
		return
	}
	r.logger.Info("Job completed", slog.String("job_id", id.String()), slog.Int("succeeded", result.Succeeded), slog.Int("failed", result.Failed))
}

func (r *Runner) update(id uuid.UUID, fn func(job *model.Job)) {
	// Progress writes outlive a cancelled job context.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.store.Update(ctx, id, fn)
	if err != nil {
		r.logger.Warn("Job update failed", slog.String("job_id", id.String()), slog.String("error", err.Error()))
	}
}

// Shutdown stops admitting jobs and waits for running ones. When ctx ends
// first, running jobs are cancelled and awaited before ctx.Err() is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
