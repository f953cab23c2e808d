package email

import (
	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
)

func NewFactory(mailer protocol.Mailer, profiles protocol.ProfileStore) *Factory {
	return &Factory{mailer: mailer, profiles: profiles}
}

type Factory struct {
	mailer   protocol.Mailer
	profiles protocol.ProfileStore
}

func (f *Factory) ID() models.StepKind {
	return models.StepKindEmail
}

func (f *Factory) Name() string {
	return "Email"
}

func (f *Factory) Description() string {
	return "Sends a templated email to the execution's subject through the configured mail transport."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template_id": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Identifier of the email template to render and send.",
				"examples":    []string{"welcome-lead", "price-drop-alert", "booking-confirmation"},
			},
			"data": map[string]any{
				"type":        "object",
				"description": "Extra template data merged under the trigger payload. String values support templating.",
			},
		},
		"required": []string{"template_id"},
	}
}

func (f *Factory) Create() (protocol.StepExecutor, error) {
	return NewExecutor(f.mailer, f.profiles), nil
}
