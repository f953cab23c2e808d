package webhook

import (
	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() models.StepKind {
	return models.StepKindWebhook
}

func (f *Factory) Name() string {
	return "Webhook"
}

func (f *Factory) Description() string {
	return "Posts a JSON notification about the execution to an external URL"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Destination URL for the POST request",
			},
			"custom_data": map[string]any{
				"type":        "object",
				"description": "Extra fields merged into the notification payload",
			},
		},
		"required": []string{"url"},
	}
}

func (f *Factory) Create() (protocol.StepExecutor, error) {
	return NewExecutor(), nil
}
