// Package email provides the templated-email step executor.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
	"github.com/windward-io/windward/pkg/template"
)

const sendTimeout = 30 * time.Second

var ErrMissingConfig = errors.New("email step missing configuration")

// Executor sends a templated email to the execution's subject. The merged
// payload is trigger data, then step data, then profile fields, so the
// profile always wins for identity fields.
type Executor struct {
	mailer   protocol.Mailer
	profiles protocol.ProfileStore
}

func NewExecutor(mailer protocol.Mailer, profiles protocol.ProfileStore) *Executor {
	return &Executor{mailer: mailer, profiles: profiles}
}

func (e *Executor) Execute(ctx context.Context, step *models.WorkflowStep, execution *models.WorkflowExecution, logger *slog.Logger) (*protocol.StepOutcome, error) {
	config := step.Email
	if config == nil {
		return nil, ErrMissingConfig
	}

	logger = logger.With("step_kind", "email", "template_id", config.TemplateID)

	profile, err := e.profiles.GetProfile(ctx, execution.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subject %s: %w", execution.SubjectID, err)
	}

	data := make(map[string]any)

	for k, v := range execution.TriggerData() {
		data[k] = v
	}

	for k, v := range config.Data {
		if raw, ok := v.(string); ok {
			rendered, err := template.Render(raw, map[string]any{
				"trigger_data": execution.TriggerData(),
				"context":      execution.Context,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to render email data %q: %w", k, err)
			}

			data[k] = rendered

			continue
		}

		data[k] = v
	}

	for k, v := range profile.TemplateData() {
		data[k] = v
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	messageID, err := e.mailer.SendTemplated(sendCtx, config.TemplateID, profile.Email, data)
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	logger.InfoContext(ctx, "Email sent", "message_id", messageID, "recipient", profile.Email)

	return &protocol.StepOutcome{
		NextStepID: step.NextStepID,
		Message:    fmt.Sprintf("email %s sent", config.TemplateID),
		Data:       map[string]any{"message_id": messageID},
	}, nil
}
