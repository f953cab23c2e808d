package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/windward-io/windward/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateStepConfig validates a step's configuration variant against the
// JSON schema its executor factory declares. Used when workflow definitions
// arrive from external sources (files, the API) where the typed decode alone
// would accept structurally valid but semantically wrong documents.
func (r *Registry) ValidateStepConfig(step *models.WorkflowStep) error {
	factory, ok := r.factories[step.Kind]
	if !ok {
		return fmt.Errorf("step kind '%s' not registered", step.Kind)
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	config, err := stepConfigDocument(step)
	if err != nil {
		return err
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed for step %s: %w", step.ID, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("step %s (%s) configuration invalid: %s", step.ID, step.Kind, strings.Join(details, "; "))
	}

	return nil
}

// stepConfigDocument extracts the active config variant as a generic
// document for schema validation.
func stepConfigDocument(step *models.WorkflowStep) (map[string]any, error) {
	var variant any

	switch step.Kind {
	case models.StepKindEmail:
		variant = step.Email
	case models.StepKindWait:
		variant = step.Wait
	case models.StepKindCondition:
		variant = step.Condition
	case models.StepKindTagUpdate:
		variant = step.TagUpdate
	case models.StepKindWebhook:
		variant = step.Webhook
	default:
		return nil, fmt.Errorf("unknown step kind %q", step.Kind)
	}

	encoded, err := json.Marshal(variant)
	if err != nil {
		return nil, fmt.Errorf("failed to encode step %s config: %w", step.ID, err)
	}

	var document map[string]any
	if err := json.Unmarshal(encoded, &document); err != nil {
		return nil, fmt.Errorf("failed to decode step %s config: %w", step.ID, err)
	}

	return document, nil
}
