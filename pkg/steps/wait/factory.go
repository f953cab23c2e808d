package wait

import (
	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
)

func NewFactory() *Factory {
	return &Factory{}
}

type Factory struct{}

func (f *Factory) ID() models.StepKind {
	return models.StepKindWait
}

func (f *Factory) Name() string {
	return "Wait"
}

func (f *Factory) Description() string {
	return "Suspends the execution for a number of minutes before the next step runs."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"delay_minutes": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Minutes to wait before advancing. Zero passes through immediately.",
				"examples":    []int{0, 120, 1440, 2880, 10080},
			},
		},
		"required": []string{"delay_minutes"},
	}
}

func (f *Factory) Create() (protocol.StepExecutor, error) {
	return NewExecutor(), nil
}
