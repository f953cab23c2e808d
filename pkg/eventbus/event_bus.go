// Package eventbus provides event-driven communication between the API,
// the event sources and the workflow engine.
package eventbus

import (
	"context"

	"github.com/windward-io/windward/pkg/events"
)

// Event is a lifecycle event published on the execution topic.
type Event interface {
	GetType() events.EventType
}

// EventHandler consumes one decoded lifecycle event.
type EventHandler func(ctx context.Context, event any) error

// AutomationHandler consumes one ingested business event.
type AutomationHandler func(ctx context.Context, event events.AutomationEvent) error

// EventBus carries business events from producers to the engine and fans
// lifecycle events out to observers.
type EventBus interface {
	// PublishAutomation publishes a business event on the ingestion topic.
	PublishAutomation(ctx context.Context, event events.AutomationEvent) error
	// SubscribeAutomation consumes the ingestion topic; each message is
	// decoded and handed to the handler.
	SubscribeAutomation(ctx context.Context, handler AutomationHandler) error

	// Publish publishes an execution lifecycle event.
	Publish(ctx context.Context, key string, event Event) error
	// Handle registers the handler for one lifecycle event type.
	Handle(eventType events.EventType, handler EventHandler)
	// Subscribe consumes the lifecycle topic and dispatches to handlers.
	Subscribe(ctx context.Context) error

	Close() error
	GenerateID() string
}
