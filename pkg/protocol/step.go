// Package protocol defines the contracts between the workflow engine and its
// step executors, event sources and external collaborators.
package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/windward-io/windward/pkg/models"
)

// StepOutcome is what a step executor hands back to the engine. NextStepID
// nil means the workflow exits after this step. Suspend instructs the
// scheduler to defer the successor until ResumeAt.
type StepOutcome struct {
	NextStepID *string
	Suspend    bool
	ResumeAt   time.Time
	Message    string
	Data       map[string]any
}

// StepExecutor runs one step kind. The engine guarantees at-most-one
// concurrent call per execution id, so executors never race against
// themselves for the same execution.
type StepExecutor interface {
	Execute(ctx context.Context, step *models.WorkflowStep, execution *models.WorkflowExecution, logger *slog.Logger) (*StepOutcome, error)
}

// StepExecutorFactory builds an executor and describes its configuration for
// registration-time schema validation.
type StepExecutorFactory interface {
	ID() models.StepKind
	Name() string
	Description() string
	Schema() map[string]any
	Create() (StepExecutor, error)
}
