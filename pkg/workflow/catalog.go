// Package workflow contains the catalog of workflow definitions, the event
// router and the execution engine.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
	"github.com/windward-io/windward/pkg/registry"
)

// Catalog is the read-mostly registry of workflow definitions. Registration
// validates and persists a definition; reads are served from an in-memory
// index so trigger matching never hits storage.
type Catalog struct {
	logger     *slog.Logger
	repository persistence.WorkflowRepository
	registry   *registry.Registry
	validator  *validator.Validate

	mu        sync.RWMutex
	workflows map[string]*models.Workflow
}

func NewCatalog(logger *slog.Logger, repository persistence.WorkflowRepository, registry *registry.Registry) *Catalog {
	return &Catalog{
		logger:     logger.With("module", "workflow_catalog"),
		repository: repository,
		registry:   registry,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		workflows:  make(map[string]*models.Workflow),
	}
}

// Register validates a workflow definition, persists it, and adds it to the
// index. A definition that fails structural, graph or step schema validation
// never reaches the index, so the engine only ever sees runnable graphs.
func (c *Catalog) Register(ctx context.Context, workflow *models.Workflow) error {
	if err := c.validator.Struct(workflow); err != nil {
		return fmt.Errorf("workflow %s: invalid definition: %w", workflow.ID, err)
	}

	if err := workflow.ValidateGraph(); err != nil {
		return err
	}

	if c.registry != nil {
		for _, step := range workflow.Steps {
			if err := c.registry.ValidateStepConfig(step); err != nil {
				return fmt.Errorf("workflow %s: %w", workflow.ID, err)
			}
		}
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if err := c.repository.Save(ctx, workflow); err != nil {
		return fmt.Errorf("failed to persist workflow %s: %w", workflow.ID, err)
	}

	c.mu.Lock()
	c.workflows[workflow.ID] = workflow
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Registered workflow",
		"workflow_id", workflow.ID,
		"workflow_name", workflow.Name,
		"trigger_event", workflow.Trigger.Event,
		"steps", len(workflow.Steps))

	return nil
}

// Restore loads previously persisted definitions into the index. Called on
// startup so a restarted engine serves the same catalog.
func (c *Catalog) Restore(ctx context.Context) error {
	workflows, err := c.repository.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load workflows: %w", err)
	}

	c.mu.Lock()
	for _, workflow := range workflows {
		c.workflows[workflow.ID] = workflow
	}
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Restored workflow catalog", "count", len(workflows))

	return nil
}

// Get returns a workflow by id.
func (c *Catalog) Get(id string) (*models.Workflow, error) {
	c.mu.RLock()
	workflow, ok := c.workflows[id]
	c.mu.RUnlock()

	if !ok {
		return nil, persistence.ErrWorkflowNotFound
	}

	return workflow, nil
}

// All returns every registered workflow.
func (c *Catalog) All() []*models.Workflow {
	c.mu.RLock()
	defer c.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(c.workflows))
	for _, workflow := range c.workflows {
		workflows = append(workflows, workflow)
	}

	return workflows
}

// ActiveByEvent returns the active workflows whose trigger listens for the
// given event type.
func (c *Catalog) ActiveByEvent(eventType string) []*models.Workflow {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []*models.Workflow

	for _, workflow := range c.workflows {
		if workflow.IsActive() && workflow.Trigger.Event == eventType {
			matched = append(matched, workflow)
		}
	}

	return matched
}

// RecordTriggered bumps the workflow's triggered counter and persists it.
func (c *Catalog) RecordTriggered(ctx context.Context, id string) {
	c.bumpStats(ctx, id, func(s *models.WorkflowStats) { s.Triggered++ })
}

// RecordCompleted bumps the workflow's completed counter and persists it.
func (c *Catalog) RecordCompleted(ctx context.Context, id string) {
	c.bumpStats(ctx, id, func(s *models.WorkflowStats) { s.Completed++ })
}

// RecordFailed bumps the workflow's failed counter and persists it.
func (c *Catalog) RecordFailed(ctx context.Context, id string) {
	c.bumpStats(ctx, id, func(s *models.WorkflowStats) { s.Failed++ })
}

func (c *Catalog) bumpStats(ctx context.Context, id string, bump func(*models.WorkflowStats)) {
	c.mu.Lock()

	workflow, ok := c.workflows[id]
	if !ok {
		c.mu.Unlock()
		return
	}

	bump(&workflow.Stats)
	c.mu.Unlock()

	if err := c.repository.Save(ctx, workflow); err != nil {
		c.logger.ErrorContext(ctx, "Failed to persist workflow stats",
			"workflow_id", id, "error", err)
	}
}
