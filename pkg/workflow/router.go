package workflow

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/windward-io/windward/pkg/events"
	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/otelhelper"
)

// routeBinding connects one event type to one workflow, guarded by an
// optional condition set evaluated against the event payload.
type routeBinding struct {
	workflowID string
	conditions []models.Condition
}

// Router fans incoming business events out to workflow triggers. All
// collaborators are injected; the router holds no global state.
type Router struct {
	logger  *slog.Logger
	catalog *Catalog
	engine  *Engine
	tracer  trace.Tracer

	mu       sync.RWMutex
	bindings map[string][]routeBinding
}

func NewRouter(logger *slog.Logger, catalog *Catalog, engine *Engine, tracer trace.Tracer) *Router {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("windward")
	}

	return &Router{
		logger:   logger.With("module", "event_router"),
		catalog:  catalog,
		engine:   engine,
		tracer:   tracer,
		bindings: make(map[string][]routeBinding),
	}
}

// RegisterHandler binds an event type to a workflow, optionally guarded by
// conditions on the event payload.
func (r *Router) RegisterHandler(eventType, workflowID string, conditions ...models.Condition) {
	r.mu.Lock()
	r.bindings[eventType] = append(r.bindings[eventType], routeBinding{
		workflowID: workflowID,
		conditions: conditions,
	})
	r.mu.Unlock()

	r.logger.Info("Registered event handler",
		"event_type", eventType,
		"workflow_id", workflowID,
		"conditions", len(conditions))
}

// BindCatalog registers a handler for every active workflow's trigger, so
// the router mirrors the catalog without per-workflow wiring.
func (r *Router) BindCatalog() {
	for _, workflow := range r.catalog.All() {
		if !workflow.IsActive() {
			continue
		}

		r.RegisterHandler(workflow.Trigger.Event, workflow.ID, workflow.Trigger.Conditions...)
	}
}

// Route evaluates every binding for the event's type and triggers each
// matching workflow. Failures are isolated: one workflow erroring does not
// stop the fan-out to the rest.
func (r *Router) Route(ctx context.Context, event events.AutomationEvent) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "event.route",
		attribute.String(otelhelper.EventIDKey, event.ID),
		attribute.String(otelhelper.EventTypeKey, event.Type),
		attribute.String(otelhelper.SubjectIDKey, event.SubjectID),
	)
	defer span.End()

	r.mu.RLock()
	bindings := make([]routeBinding, len(r.bindings[event.Type]))
	copy(bindings, r.bindings[event.Type])
	r.mu.RUnlock()

	logger := r.logger.With(
		"event_id", event.ID,
		"event_type", event.Type,
		"subject_id", event.SubjectID)

	if len(bindings) == 0 {
		logger.DebugContext(ctx, "No handlers for event")
		return
	}

	triggered := 0

	for _, binding := range bindings {
		if !models.EvaluateAll(binding.conditions, event.Data) {
			logger.DebugContext(ctx, "Event conditions not met",
				"workflow_id", binding.workflowID)
			continue
		}

		execution, err := r.engine.Trigger(ctx, binding.workflowID, event.SubjectID, event.Data)
		if err != nil {
			otelhelper.SetError(span, err)
			logger.ErrorContext(ctx, "Failed to trigger workflow for event",
				"workflow_id", binding.workflowID,
				"error", err)
			continue
		}

		triggered++

		logger.InfoContext(ctx, "Workflow triggered by event",
			"workflow_id", binding.workflowID,
			"execution_id", execution.ID)
	}

	logger.InfoContext(ctx, "Routed event",
		"handlers", len(bindings),
		"triggered", triggered)
}

// Handle adapts Route to the event bus subscription callback.
func (r *Router) Handle(ctx context.Context, event events.AutomationEvent) error {
	r.Route(ctx, event)
	return nil
}
