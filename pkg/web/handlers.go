// Package web provides the HTTP handlers for event ingestion, workflow
// management and execution control.
package web

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/windward-io/windward/pkg/eventbus"
	"github.com/windward-io/windward/pkg/events"
	"github.com/windward-io/windward/pkg/persistence"
	"github.com/windward-io/windward/pkg/workflow"
)

type APIHandlers struct {
	logger      *slog.Logger
	catalog     *workflow.Catalog
	engine      *workflow.Engine
	eventBus    eventbus.EventBus
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	catalog *workflow.Catalog,
	engine *workflow.Engine,
	eventBus eventbus.EventBus,
	persistence persistence.Persistence,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		logger:      logger.With("module", "api_handlers"),
		catalog:     catalog,
		engine:      engine,
		eventBus:    eventBus,
		persistence: persistence,
		validator:   validator,
	}
}

// IngestEvent accepts a business event and publishes it on the ingestion
// topic. Routing happens asynchronously in the engine process.
func (h *APIHandlers) IngestEvent(c fiber.Ctx) error {
	var req IngestEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	event := events.NewAutomationEvent(req.Type, req.SubjectID, req.Data, req.Source)

	if err := h.eventBus.PublishAutomation(c.Context(), event); err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to publish event",
			"event_type", req.Type, "error", err)

		return internalError(c, err)
	}

	h.logger.InfoContext(c.Context(), "Event accepted",
		"event_id", event.ID,
		"event_type", event.Type,
		"subject_id", event.SubjectID)

	return c.Status(fiber.StatusAccepted).JSON(IngestEventResponse{
		EventID: event.ID,
		Status:  "accepted",
	})
}

// GetWorkflows lists the registered workflow definitions.
func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	return c.JSON(h.catalog.All())
}

// GetWorkflow returns one workflow definition.
func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	wf, err := h.catalog.Get(c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(wf)
}

// TriggerWorkflow starts an execution directly, bypassing event routing.
func (h *APIHandlers) TriggerWorkflow(c fiber.Ctx) error {
	var req TriggerWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.engine.Trigger(c.Context(), c.Params("id"), req.SubjectID, req.Data)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

// GetExecution returns the current state of one execution, including its
// audit log.
func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.engine.GetExecution(c.Context(), c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(execution)
}

// PauseExecution requests a pause; it lands at the next step boundary.
func (h *APIHandlers) PauseExecution(c fiber.Ctx) error {
	if err := h.engine.Pause(c.Context(), c.Params("id")); err != nil {
		return handleEngineError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ResumeExecution restarts a paused execution.
func (h *APIHandlers) ResumeExecution(c fiber.Ctx) error {
	if err := h.engine.Resume(c.Context(), c.Params("id")); err != nil {
		return handleEngineError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HealthCheck reports the health of the storage layer.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"workflows": len(h.catalog.All()),
	})
}
