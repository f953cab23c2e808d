package condition

import (
	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
)

func NewFactory(profiles protocol.ProfileStore) *Factory {
	return &Factory{profiles: profiles}
}

type Factory struct {
	profiles protocol.ProfileStore
}

func (f *Factory) ID() models.StepKind {
	return models.StepKindCondition
}

func (f *Factory) Name() string {
	return "Condition"
}

func (f *Factory) Description() string {
	return "Branches the workflow on a conjunctive list of field/operator/value predicates."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"conditions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"field": map[string]any{
							"type":        "string",
							"minLength":   1,
							"description": "Dot-path into the merged trigger/context/subject record.",
							"examples":    []string{"lastEmailOpened", "subject.hasBooked", "percentageDiscount"},
						},
						"operator": map[string]any{
							"type": "string",
							"enum": []string{"equals", "not_equals", "contains", "gt", "lt", "gte", "lte", "in", "not_in", "exists"},
						},
						"value": map[string]any{
							"description": "Comparison operand. Omitted for the exists operator.",
						},
					},
					"required": []string{"field", "operator"},
				},
			},
		},
		"required": []string{"conditions"},
	}
}

func (f *Factory) Create() (protocol.StepExecutor, error) {
	return NewExecutor(f.profiles), nil
}
