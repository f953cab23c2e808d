// Package condition provides the branching step executor.
package condition

import (
	"context"
	"errors"
	"log/slog"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
)

var ErrMissingConfig = errors.New("condition step missing configuration")

// Executor branches on a conjunctive condition list evaluated against the
// merged trigger data, execution context and subject profile. A true result
// takes NextStepID; false takes AlternateStepID. A nil alternate is a
// deliberate workflow exit, not a failure.
type Executor struct {
	profiles protocol.ProfileStore
}

func NewExecutor(profiles protocol.ProfileStore) *Executor {
	return &Executor{profiles: profiles}
}

func (e *Executor) Execute(ctx context.Context, step *models.WorkflowStep, execution *models.WorkflowExecution, logger *slog.Logger) (*protocol.StepOutcome, error) {
	config := step.Condition
	if config == nil {
		return nil, ErrMissingConfig
	}

	merged := e.mergedContext(ctx, execution, logger)

	matched := models.EvaluateAll(config.Conditions, merged)

	logger.InfoContext(ctx, "Condition evaluated",
		"step_kind", "condition",
		"matched", matched,
	)

	if matched {
		return &protocol.StepOutcome{
			NextStepID: step.NextStepID,
			Message:    "condition matched",
			Data:       map[string]any{"matched": true},
		}, nil
	}

	return &protocol.StepOutcome{
		NextStepID: step.AlternateStepID,
		Message:    "condition not matched",
		Data:       map[string]any{"matched": false},
	}, nil
}

// mergedContext flattens trigger data and subject fields over the execution
// context, and keeps the nested records addressable by dot-path too.
func (e *Executor) mergedContext(ctx context.Context, execution *models.WorkflowExecution, logger *slog.Logger) map[string]any {
	merged := make(map[string]any)

	for k, v := range execution.Context {
		merged[k] = v
	}

	for k, v := range execution.TriggerData() {
		merged[k] = v
	}

	profile, err := e.profiles.GetProfile(ctx, execution.SubjectID)
	if err != nil {
		// A missing profile makes subject conditions falsy; it does not fail
		// the branch.
		logger.WarnContext(ctx, "Failed to resolve subject for condition", "error", err)

		return merged
	}

	subject := profile.TemplateData()
	for k, v := range subject {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}

	merged["subject"] = subject

	return merged
}
