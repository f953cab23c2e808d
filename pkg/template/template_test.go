package template

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windward-io/windward/pkg/models"
)

func TestRender(t *testing.T) {
	data := map[string]any{
		"trigger_data": map[string]any{
			"destination": "Lisbon",
			"discount":    20,
			"confirmed":   true,
		},
	}

	tests := []struct {
		name     string
		template string
		expected any
	}{
		{name: "plain string", template: "hello", expected: "hello"},
		{name: "field access", template: "{{.trigger_data.destination}}", expected: "Lisbon"},
		{name: "numeric result is typed", template: "{{.trigger_data.discount}}", expected: float64(20)},
		{name: "boolean result is typed", template: "{{.trigger_data.confirmed}}", expected: true},
		{name: "interpolation stays string", template: "Deals for {{.trigger_data.destination}}", expected: "Deals for Lisbon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRender_JSONResultIsDecoded(t *testing.T) {
	result, err := Render(`{"destination": "Lisbon"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"destination": "Lisbon"}, result)
}

func TestRender_ParseError(t *testing.T) {
	_, err := Render("{{.unclosed", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to parse template")
}

func TestRender_NowMillis(t *testing.T) {
	before := time.Now().UTC().UnixMilli()

	result, err := Render("{{now_ms}}", nil)
	require.NoError(t, err)

	millis, ok := result.(float64)
	require.True(t, ok, "now_ms should decode as a number")
	assert.GreaterOrEqual(t, int64(millis), before)
}

func TestRenderString_KeepsStringResult(t *testing.T) {
	result, err := RenderString("lastAlertSent:{{now_ms}}", nil)
	require.NoError(t, err)

	assert.Contains(t, result, "lastAlertSent:")

	_, err = strconv.ParseInt(result[len("lastAlertSent:"):], 10, 64)
	assert.NoError(t, err)
}

func TestRenderString_FormatsTypedResults(t *testing.T) {
	result, err := RenderString("42", nil)
	require.NoError(t, err)
	assert.Equal(t, "42", result)

	result, err = RenderString("true", nil)
	require.NoError(t, err)
	assert.Equal(t, "true", result)
}

func TestRenderWithExecution(t *testing.T) {
	workflow := &models.Workflow{
		ID:   "welcome-series-v1",
		Name: "Welcome Series",
		Steps: []*models.WorkflowStep{
			{ID: "welcome-email-1", Kind: models.StepKindEmail, Name: "Welcome Email"},
		},
	}
	execution := models.NewWorkflowExecution(workflow, "user-42", map[string]any{"destination": "Porto"})

	result, err := RenderWithExecution("{{.trigger_data.destination}}", execution)
	require.NoError(t, err)
	assert.Equal(t, "Porto", result)

	result, err = RenderWithExecution("{{.execution.subject_id}}", execution)
	require.NoError(t, err)
	assert.Equal(t, "user-42", result)
}
