// Package wait provides the time-delay step executor.
package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
)

var ErrMissingConfig = errors.New("wait step missing configuration")

// Executor suspends the execution until the configured delay has elapsed.
// The suspension itself is the scheduler's job; this executor only computes
// the resume instant. A zero delay is an immediate pass-through and never
// round-trips through the scheduler.
type Executor struct {
	now func() time.Time
}

func NewExecutor() *Executor {
	return &Executor{now: time.Now}
}

func (e *Executor) Execute(ctx context.Context, step *models.WorkflowStep, _ *models.WorkflowExecution, logger *slog.Logger) (*protocol.StepOutcome, error) {
	config := step.Wait
	if config == nil {
		return nil, ErrMissingConfig
	}

	if config.DelayMinutes < 0 {
		return nil, fmt.Errorf("wait step %s: negative delay %d", step.ID, config.DelayMinutes)
	}

	if config.DelayMinutes == 0 {
		return &protocol.StepOutcome{
			NextStepID: step.NextStepID,
			Message:    "wait skipped (zero delay)",
		}, nil
	}

	resumeAt := e.now().UTC().Add(time.Duration(config.DelayMinutes) * time.Minute)

	logger.InfoContext(ctx, "Suspending execution",
		"step_kind", "wait",
		"delay_minutes", config.DelayMinutes,
		"resume_at", resumeAt,
	)

	return &protocol.StepOutcome{
		NextStepID: step.NextStepID,
		Suspend:    true,
		ResumeAt:   resumeAt,
		Message:    fmt.Sprintf("waiting %d minutes", config.DelayMinutes),
	}, nil
}
