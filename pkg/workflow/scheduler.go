package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
)

const defaultScanInterval = 30 * time.Second

const defaultSchedulerWorkers = 4

// Scheduler resumes suspended executions whose wait deadline has passed. It
// polls the execution store rather than holding in-process timers, so
// in-flight waits survive restarts.
type Scheduler struct {
	logger     *slog.Logger
	executions persistence.ExecutionRepository
	engine     *Engine

	interval time.Duration
	workers  int
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

type SchedulerOption func(*Scheduler)

func WithScanInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = interval }
}

func WithWorkers(workers int) SchedulerOption {
	return func(s *Scheduler) { s.workers = workers }
}

// WithNow overrides the scheduler clock.
func WithNow(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(logger *slog.Logger, executions persistence.ExecutionRepository, engine *Engine, opts ...SchedulerOption) *Scheduler {
	scheduler := &Scheduler{
		logger:     logger.With("module", "scheduler"),
		executions: executions,
		engine:     engine,
		interval:   defaultScanInterval,
		workers:    defaultSchedulerWorkers,
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(scheduler)
	}

	return scheduler
}

// Start drains due resumptions immediately, then keeps scanning on the
// configured interval until Stop or context cancellation.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.InfoContext(ctx, "Starting scheduler",
		"scan_interval", s.interval,
		"workers", s.workers)

	go func() {
		defer close(s.done)

		s.Drain(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Drain(ctx)
			}
		}
	}()
}

// Stop halts the scan loop and waits for it to exit.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done

	s.logger.Info("Scheduler stopped")
}

// Drain advances every execution that is due at this instant. Advances run
// through a bounded worker pool; each one re-takes the engine's keyed lock,
// so a resumption racing a concurrent trigger is still single-writer.
func (s *Scheduler) Drain(ctx context.Context) {
	due, err := s.executions.DueResumptions(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to query due resumptions", "error", err)
		return
	}

	if len(due) == 0 {
		return
	}

	s.logger.InfoContext(ctx, "Resuming due executions", "count", len(due))

	queue := make(chan *models.WorkflowExecution)

	var wg sync.WaitGroup

	workers := s.workers
	if workers < 1 {
		workers = 1
	}

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for execution := range queue {
				if err := s.engine.Advance(ctx, execution.ID); err != nil {
					s.logger.ErrorContext(ctx, "Failed to advance due execution",
						"execution_id", execution.ID,
						"workflow_id", execution.WorkflowID,
						"error", err)
				}
			}
		}()
	}

	for _, execution := range due {
		select {
		case <-ctx.Done():
			close(queue)
			wg.Wait()

			return
		case queue <- execution:
		}
	}

	close(queue)
	wg.Wait()
}
