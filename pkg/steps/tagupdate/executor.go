// Package tagupdate provides the profile tag update step executor.
package tagupdate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
	"github.com/windward-io/windward/pkg/template"
)

var ErrMissingConfig = errors.New("tag update step missing configuration")

// Executor applies tags to the subject's persisted profile. Tag values are
// rendered first, so "lastAlertSent:{{now_ms}}" records the send instant.
type Executor struct {
	profiles protocol.ProfileStore
}

func NewExecutor(profiles protocol.ProfileStore) *Executor {
	return &Executor{profiles: profiles}
}

func (e *Executor) Execute(ctx context.Context, step *models.WorkflowStep, execution *models.WorkflowExecution, logger *slog.Logger) (*protocol.StepOutcome, error) {
	config := step.TagUpdate
	if config == nil {
		return nil, ErrMissingConfig
	}

	rendered := make([]string, 0, len(config.Tags))

	for _, tag := range config.Tags {
		value, err := template.RenderString(tag, map[string]any{
			"trigger_data": execution.TriggerData(),
			"context":      execution.Context,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render tag %q: %w", tag, err)
		}

		rendered = append(rendered, value)
	}

	if err := e.profiles.ApplyTags(ctx, execution.SubjectID, rendered); err != nil {
		return nil, fmt.Errorf("failed to apply tags to subject %s: %w", execution.SubjectID, err)
	}

	logger.InfoContext(ctx, "Tags applied",
		"step_kind", "tag_update",
		"subject_id", execution.SubjectID,
		"tags", rendered,
	)

	return &protocol.StepOutcome{
		NextStepID: step.NextStepID,
		Message:    fmt.Sprintf("%d tags applied", len(rendered)),
		Data:       map[string]any{"tags": rendered},
	}, nil
}
