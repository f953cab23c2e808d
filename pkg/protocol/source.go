package protocol

import (
	"context"

	"github.com/windward-io/windward/pkg/events"
)

// SourceCallback receives each event an EventSource produces.
type SourceCallback func(ctx context.Context, event events.AutomationEvent) error

// EventSource feeds business events into the engine: a redis queue drained
// by the booking site, a cron sweep for inactivity, and so on.
type EventSource interface {
	Start(ctx context.Context, callback SourceCallback) error
	Stop(ctx context.Context) error
	Validate() error
}
