package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windward-io/windward/pkg/models"
)

func webhookStep(url string, customData map[string]any) *models.WorkflowStep {
	return &models.WorkflowStep{
		ID:   "log-skipped",
		Kind: models.StepKindWebhook,
		Name: "Log Skipped Alert",
		Webhook: &models.WebhookStepConfig{
			URL:        url,
			CustomData: customData,
		},
	}
}

func webhookExecution() *models.WorkflowExecution {
	workflow := &models.Workflow{ID: "price-drop-alert-v1", Name: "Price Drop Alert"}

	return models.NewWorkflowExecution(workflow, "user-42", nil)
}

func TestExecutor_DeliversPayload(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	execution := webhookExecution()
	step := webhookStep(server.URL, map[string]any{"action": "alert_skipped", "reason": "frequency_limit"})

	outcome, err := NewExecutor().Execute(context.Background(), step, execution, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, outcome.Data["status_code"])
	assert.Equal(t, "webhook delivered (200)", outcome.Message)

	assert.Equal(t, execution.ID, received["execution_id"])
	assert.Equal(t, "price-drop-alert-v1", received["workflow_id"])
	assert.Equal(t, "user-42", received["subject_id"])
	assert.Equal(t, "log-skipped", received["step_id"])
	assert.Equal(t, map[string]any{"action": "alert_skipped", "reason": "frequency_limit"}, received["custom_data"])
}

func TestExecutor_ClientErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := NewExecutor().
		Execute(context.Background(), webhookStep(server.URL, nil), webhookExecution(), slog.Default())
	require.Error(t, err)
	assert.ErrorContains(t, err, "webhook returned status 422")
}

func TestExecutor_ServerErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewExecutor().
		Execute(context.Background(), webhookStep(server.URL, nil), webhookExecution(), slog.Default())
	require.Error(t, err)
	assert.ErrorContains(t, err, "webhook returned status 502")
}

func TestExecutor_UnreachableURLFails(t *testing.T) {
	_, err := NewExecutor().
		Execute(context.Background(), webhookStep("http://127.0.0.1:1/hook", nil), webhookExecution(), slog.Default())
	require.Error(t, err)
	assert.ErrorContains(t, err, "webhook call failed")
}

func TestExecutor_MissingConfig(t *testing.T) {
	step := &models.WorkflowStep{ID: "broken", Kind: models.StepKindWebhook, Name: "Broken"}

	_, err := NewExecutor().Execute(context.Background(), step, webhookExecution(), slog.Default())
	assert.ErrorIs(t, err, ErrMissingConfig)
}
