// Package template renders dynamic values in step configuration: email
// payload fields, tag values and webhook data.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/windward-io/windward/pkg/models"
)

// RenderWithExecution renders a template string against the standard
// execution data layout: trigger data, context and execution identifiers.
func RenderWithExecution(input string, execution *models.WorkflowExecution) (any, error) {
	data := map[string]any{
		"trigger_data": execution.TriggerData(),
		"context":      execution.Context,
		"execution": map[string]any{
			"id":          execution.ID,
			"workflow_id": execution.WorkflowID,
			"subject_id":  execution.SubjectID,
		},
	}

	return Render(input, data)
}

// Render executes a text/template against data. Results that look like
// JSON, numbers or booleans are decoded to their typed values.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"now_ms": func() int64 {
				return time.Now().UTC().UnixMilli()
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString renders a template and keeps the result a string, for tag
// values like "lastAlertSent:{{now_ms}}".
func RenderString(templateStr string, data any) (string, error) {
	result, err := Render(templateStr, data)
	if err != nil {
		return "", err
	}

	switch v := result.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}

		return string(encoded), nil
	}
}
