// Package webhook provides the best-effort webhook notification step
// executor.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
)

const callTimeout = 10 * time.Second

var ErrMissingConfig = errors.New("webhook step missing configuration")

// Executor posts a JSON notification to an external URL. Webhook steps are
// advisory: the default failure policy logs the error and the execution
// keeps moving.
type Executor struct {
	client *http.Client
}

func NewExecutor() *Executor {
	return &Executor{
		client: &http.Client{Timeout: callTimeout},
	}
}

func (e *Executor) Execute(ctx context.Context, step *models.WorkflowStep, execution *models.WorkflowExecution, logger *slog.Logger) (*protocol.StepOutcome, error) {
	config := step.Webhook
	if config == nil {
		return nil, ErrMissingConfig
	}

	logger = logger.With("step_kind", "webhook", "url", config.URL)

	payload := map[string]any{
		"execution_id": execution.ID,
		"workflow_id":  execution.WorkflowID,
		"subject_id":   execution.SubjectID,
		"step_id":      step.ID,
		"custom_data":  config.CustomData,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook call failed: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	logger.InfoContext(ctx, "Webhook delivered", "status", resp.StatusCode)

	return &protocol.StepOutcome{
		NextStepID: step.NextStepID,
		Message:    fmt.Sprintf("webhook delivered (%d)", resp.StatusCode),
		Data:       map[string]any{"status_code": resp.StatusCode},
	}, nil
}
