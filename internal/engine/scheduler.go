package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/PressGang/internal/types"
)

// jobRunner executes one scrape job and returns its record. A nil record
// with a nil error means the page yielded nothing usable.
type jobRunner func(ctx context.Context, job *types.ScrapeJob) (*types.ContentRecord, error)

// Scheduler runs one batch of article jobs over a worker pool. Results land
// in discovery-index slots so completion order never changes output order.
type Scheduler struct {
	engine   *Engine
	frontier *Frontier
	logger   *slog.Logger

	wg          sync.WaitGroup
	idleWorkers atomic.Int32
	done        chan struct{}

	mu      sync.Mutex
	results []*types.ContentRecord
}

// NewScheduler creates a scheduler for a batch of slots jobs.
func NewScheduler(e *Engine, frontier *Frontier, slots int) *Scheduler {
	return &Scheduler{
		engine:   e,
		frontier: frontier,
		logger:   e.logger.With("component", "scheduler"),
		done:     make(chan struct{}),
		results:  make([]*types.ContentRecord, slots),
	}
}

// Start launches the worker pool and the idle monitor.
func (s *Scheduler) Start(ctx context.Context) {
	workers := s.engine.cfg.Engine.Workers
	if workers < 1 {
		workers = 1
	}
	s.logger.Info("starting worker pool", "workers", workers, "jobs", s.frontier.Len())

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	go s.idleMonitor(ctx, workers)
}

// Wait blocks until all workers have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
	close(s.done)
}

// Results returns the delivered records in discovery order, empty slots
// dropped.
func (s *Scheduler) Results() []*types.ContentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.ContentRecord, 0, len(s.results))
	for _, r := range s.results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// idleMonitor closes the frontier once every worker has been idle over an
// empty queue for a sustained streak. Requeued retries reset the streak.
func (s *Scheduler) idleMonitor(ctx context.Context, workers int) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	idleStreak := 0

	for {
		select {
		case <-ctx.Done():
			s.frontier.Close()
			return
		case <-s.done:
			return
		case <-ticker.C:
			if int(s.idleWorkers.Load()) >= workers && s.frontier.Len() == 0 {
				idleStreak++
				if idleStreak >= 3 {
					s.logger.Debug("all workers idle, frontier drained")
					s.frontier.Close()
					return
				}
			} else {
				idleStreak = 0
			}
		}
	}
}

// worker pulls jobs until the frontier closes.
func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	logger := s.logger.With("worker_id", id)

	for {
		s.idleWorkers.Add(1)
		job := s.frontier.Pop(ctx)
		s.idleWorkers.Add(-1)
		if job == nil {
			return
		}

		s.engine.stats.ActiveWorkers.Add(1)
		s.processJob(ctx, logger, job)
		s.engine.stats.ActiveWorkers.Add(-1)
	}
}

// processJob runs one job under the configured timeout and delivers or
// requeues per the outcome.
func (s *Scheduler) processJob(ctx context.Context, logger *slog.Logger, job *types.ScrapeJob) {
	logger = logger.With("url", job.URL, "index", job.Index, "attempt", job.Attempt)

	timeout := s.engine.cfg.Engine.JobTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	record, err := s.engine.runJob(jobCtx, job)
	if err != nil {
		s.handleJobError(logger, job, err)
		return
	}
	if record == nil || record.IsEmpty() {
		s.engine.stats.RecordsEmpty.Add(1)
		logger.Debug("job yielded no content")
		return
	}

	s.engine.stats.RecordsExtracted.Add(1)
	s.deliver(job.Index, record)
	logger.Debug("job complete", "title", record.Title, "body_len", len(record.Body))
}

// handleJobError decides between requeue and abandonment. Overruns are
// always abandoned: a job that blew its timeout once will blow it again.
func (s *Scheduler) handleJobError(logger *slog.Logger, job *types.ScrapeJob, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.engine.stats.RecordsEmpty.Add(1)
		logger.Warn("job abandoned", "error", err)
		return
	}

	job.Attempt++
	if isRetryable(err) && !job.Exhausted() {
		s.engine.stats.NavRetries.Add(1)
		logger.Warn("requeueing job", "error", err, "max_attempts", job.MaxAttempts)
		s.frontier.Push(job)
		return
	}

	s.engine.stats.RecordsEmpty.Add(1)
	logger.Error("job failed permanently", "error", err, "attempts", job.Attempt)
}

// deliver writes the record into its discovery-index slot.
func (s *Scheduler) deliver(index int, record *types.ContentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.results) {
		s.results[index] = record
	}
}

// retryableError is implemented by the typed navigation and fetch errors.
type retryableError interface {
	IsRetryable() bool
}

func isRetryable(err error) bool {
	var r retryableError
	return errors.As(err, &r) && r.IsRetryable()
}
