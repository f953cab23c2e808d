package tagupdate

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
	return models.StepKindTagUpdate
}

func (f *Factory) Name() string {
	return "Tag Update"
}

func (f *Factory) Description() string {
	return "Applies tags to the subject's profile. \"key:value\" tags set profile attributes."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tags": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":      "string",
					"minLength": 1,
				},
				"description": "Tags to apply. String values support templating.",
				"examples":    []any{[]string{"vip"}, []string{"lastAlertSent:{{now_ms}}"}},
			},
		},
		"required": []string{"tags"},
	}
}

func (f *Factory) Create() (protocol.StepExecutor, error) {
	return NewExecutor(f.profiles), nil
}
