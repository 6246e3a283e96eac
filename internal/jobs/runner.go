package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"bazi/internal/errors"
)

// JobHandler executes a specific type of job.
type JobHandler func(ctx context.Context, job *Job, progress func(int)) (interface{}, error)

// Runner manages background job execution.
type Runner struct {
	store    *Store
	logger   *slog.Logger
	handlers map[JobType]JobHandler

	queue       chan *Job
	queueSize   int
	workerCount int

	done     chan struct{}
	stopOnce sync.Once
	cancel   map[string]context.CancelFunc

	mu sync.RWMutex
	wg sync.WaitGroup

	processedCount atomic.Int64
	failedCount    atomic.Int64

	// How often queued jobs left behind by a full queue or a restart are
	// picked up again.
	recoveryInterval time.Duration
	retention        time.Duration
}

// RunnerConfig contains configuration for the job runner.
type RunnerConfig struct {
	QueueSize        int
	WorkerCount      int
	RecoveryInterval time.Duration
	// Retention is how long finished jobs are kept. Zero keeps them forever.
	Retention time.Duration
}

// DefaultRunnerConfig returns the default runner configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		QueueSize:        32,
		WorkerCount:      2,
		RecoveryInterval: 30 * time.Second,
	}
}

// NewRunner creates a new job runner.
func NewRunner(store *Store, logger *slog.Logger, config RunnerConfig) *Runner {
	def := DefaultRunnerConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = def.WorkerCount
	}
	if config.RecoveryInterval <= 0 {
		config.RecoveryInterval = def.RecoveryInterval
	}

	return &Runner{
		store:            store,
		logger:           logger,
		handlers:         make(map[JobType]JobHandler),
		queue:            make(chan *Job, config.QueueSize),
		queueSize:        config.QueueSize,
		workerCount:      config.WorkerCount,
		done:             make(chan struct{}),
		cancel:           make(map[string]context.CancelFunc),
		recoveryInterval: config.RecoveryInterval,
		retention:        config.Retention,
	}
}

// RegisterHandler registers a handler for a job type.
func (r *Runner) RegisterHandler(jobType JobType, handler JobHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = handler
	r.logger.Debug("Registered job handler", "type", jobType)
}

// Start begins processing jobs.
func (r *Runner) Start() error {
	r.logger.Info("Starting job runner",
		"workers", r.workerCount,
		"queueSize", r.queueSize,
		"recoveryInterval", r.recoveryInterval.String(),
	)

	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.recoveryLoop()

	r.recoverPendingJobs()
	return nil
}

func (r *Runner) recoveryLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.recoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.recoverPendingJobs()
			r.pruneFinishedJobs()
		case <-r.done:
			r.logger.Debug("Recovery loop stopping")
			return
		}
	}
}

// recoverPendingJobs enqueues queued jobs from the database. A job already
// sitting in the channel may be enqueued twice; processJob skips the
// duplicate.
func (r *Runner) recoverPendingJobs() {
	pending, err := r.store.GetPendingJobs()
	if err != nil {
		r.logger.Warn("Failed to recover pending jobs", "error", err.Error())
		return
	}

	recovered := 0
	for _, job := range pending {
		select {
		case r.queue <- job:
			recovered++
		default:
		}
	}

	if recovered > 0 {
		r.logger.Info("Recovered pending jobs",
			"recovered", recovered,
			"remaining", len(pending)-recovered,
		)
	}
}

func (r *Runner) pruneFinishedJobs() {
	if r.retention <= 0 {
		return
	}
	removed, err := r.store.CleanupOldJobs(r.retention)
	if err != nil {
		r.logger.Warn("Failed to prune finished jobs", "error", err.Error())
		return
	}
	if removed > 0 {
		r.logger.Info("Pruned finished jobs", "removed", removed)
	}
}

// Stop gracefully shuts down the runner, cancelling running jobs.
func (r *Runner) Stop(timeout time.Duration) error {
	r.logger.Info("Stopping job runner")
	r.stopOnce.Do(func() { close(r.done) })

	r.mu.Lock()
	for id, cancel := range r.cancel {
		r.logger.Debug("Cancelling running job", "jobId", id)
		cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		r.logger.Info("Job runner stopped cleanly")
		return nil
	case <-timer.C:
		return fmt.Errorf("job runner shutdown timed out after %v", timeout)
	}
}

// Submit persists a job and queues it.
func (r *Runner) Submit(job *Job) error {
	if !r.IsRunning() {
		return errors.Newf(errors.InternalError, "runner is shutting down")
	}
	if err := r.store.CreateJob(job); err != nil {
		return errors.New(errors.StorageError, "persist job", err)
	}

	select {
	case r.queue <- job:
		r.logger.Debug("Job queued", "jobId", job.ID, "type", job.Type)
	default:
		// The job stays queued in the database for the recovery loop.
		r.logger.Warn("Job queue full, job will be processed later", "jobId", job.ID)
	}
	return nil
}

// Cancel stops a queued or running job.
func (r *Runner) Cancel(jobID string) (*Job, error) {
	job, err := r.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if !job.CanCancel() {
		return nil, errors.Newf(errors.JobNotCancellable, "job %s cannot be cancelled in state %s", jobID, job.Status).
			WithDetails(map[string]string{"id": jobID, "status": string(job.Status)})
	}

	if job.Status == JobQueued {
		ok, err := r.store.CancelQueued(job)
		if err != nil {
			return nil, errors.New(errors.StorageError, "update job", err)
		}
		if ok {
			r.logger.Info("Job cancelled", "jobId", jobID)
			return job, nil
		}
		// A worker claimed it in the meantime.
		job.Status = JobRunning
		job.CompletedAt = nil
	}

	// The worker records the cancellation when the handler returns.
	r.mu.RLock()
	cancel, running := r.cancel[jobID]
	r.mu.RUnlock()
	if running {
		cancel()
	}
	return job, nil
}

// GetJob retrieves a job by ID.
func (r *Runner) GetJob(jobID string) (*Job, error) {
	job, err := r.store.GetJob(jobID)
	if err != nil {
		return nil, errors.New(errors.StorageError, "load job", err)
	}
	if job == nil {
		return nil, errors.Newf(errors.JobNotFound, "job %s not found", jobID).
			WithDetails(map[string]string{"id": jobID})
	}
	return job, nil
}

// ListJobs lists jobs with filters.
func (r *Runner) ListJobs(opts ListJobsOptions) (*ListJobsResponse, error) {
	resp, err := r.store.ListJobs(opts)
	if err != nil {
		return nil, errors.New(errors.StorageError, "list jobs", err)
	}
	return resp, nil
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()
	r.logger.Debug("Job worker started", "workerId", id)

	for {
		select {
		case job := <-r.queue:
			r.processJob(job)
		case <-r.done:
			r.logger.Debug("Job worker stopping", "workerId", id)
			return
		}
	}
}

func (r *Runner) processJob(queued *Job) {
	// The queued copy may be stale: the job can have been cancelled or
	// picked up by another worker since it was enqueued.
	job, err := r.store.GetJob(queued.ID)
	if err != nil || job == nil || job.Status != JobQueued {
		return
	}

	r.mu.RLock()
	handler, ok := r.handlers[job.Type]
	r.mu.RUnlock()

	if !ok {
		r.logger.Error("No handler for job type", "jobId", job.ID, "type", job.Type)
		job.MarkFailed(fmt.Errorf("no handler for job type: %s", job.Type))
		_ = r.store.UpdateJob(job)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel[job.ID] = cancel
	r.mu.Unlock()
	select {
	case <-r.done:
		cancel()
	default:
	}

	defer func() {
		r.mu.Lock()
		delete(r.cancel, job.ID)
		r.mu.Unlock()
		cancel()
	}()

	claimed, err := r.store.ClaimJob(job)
	if err != nil {
		r.logger.Error("Failed to update job status", "jobId", job.ID, "error", err.Error())
		return
	}
	if !claimed {
		return
	}
	r.logger.Info("Processing job", "jobId", job.ID, "type", job.Type)

	progress := func(pct int) {
		job.SetProgress(pct)
		if err := r.store.UpdateJob(job); err != nil {
			r.logger.Warn("Failed to update job progress", "jobId", job.ID, "error", err.Error())
		}
	}

	startTime := time.Now()
	result, err := handler(ctx, job, progress)
	duration := time.Since(startTime)

	switch {
	case err != nil && ctx.Err() == context.Canceled:
		job.MarkCancelled()
		r.logger.Info("Job cancelled", "jobId", job.ID, "duration", duration.String())
	case err != nil:
		job.MarkFailed(err)
		r.failedCount.Add(1)
		r.logger.Error("Job failed", "jobId", job.ID, "error", err.Error(), "duration", duration.String())
	default:
		if err := job.MarkCompleted(result); err != nil {
			r.logger.Error("Failed to serialize job result", "jobId", job.ID, "error", err.Error())
			job.MarkFailed(err)
			r.failedCount.Add(1)
		} else {
			r.processedCount.Add(1)
			r.logger.Info("Job completed", "jobId", job.ID, "duration", duration.String())
		}
	}

	if err := r.store.UpdateJob(job); err != nil {
		r.logger.Error("Failed to save job final state", "jobId", job.ID, "error", err.Error())
	}
}

// RunnerStats is a snapshot of runner activity.
type RunnerStats struct {
	QueueLength    int   `json:"queueLength"`
	QueueCapacity  int   `json:"queueCapacity"`
	RunningJobs    int   `json:"runningJobs"`
	ProcessedTotal int64 `json:"processedTotal"`
	FailedTotal    int64 `json:"failedTotal"`
	WorkerCount    int   `json:"workerCount"`
}

// Stats returns runner statistics.
func (r *Runner) Stats() RunnerStats {
	r.mu.RLock()
	running := len(r.cancel)
	r.mu.RUnlock()

	return RunnerStats{
		QueueLength:    len(r.queue),
		QueueCapacity:  r.queueSize,
		RunningJobs:    running,
		ProcessedTotal: r.processedCount.Load(),
		FailedTotal:    r.failedCount.Load(),
		WorkerCount:    r.workerCount,
	}
}

// IsRunning returns true if the runner is active.
func (r *Runner) IsRunning() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}
