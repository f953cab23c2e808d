// Package persistence provides the durable storage abstraction for
// workflows, executions and subject profiles.
package persistence

import (
	"context"
	"time"

	"github.com/windward-io/windward/pkg/models"
)

// WorkflowRepository stores workflow definitions. Definitions are
// read-mostly: written at configuration time, read on every trigger.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores workflow executions, including their embedded
// execution log, and answers the "due to resume" query the scheduler drains.
// Updates are single-writer per execution id.
type ExecutionRepository interface {
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	Save(ctx context.Context, execution *models.WorkflowExecution) error
	ByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error)
	// DueResumptions returns running executions whose wait deadline is at or
	// before the given instant.
	DueResumptions(ctx context.Context, before time.Time) ([]*models.WorkflowExecution, error)
}

// ProfileRepository stores subject profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error
	ApplyTags(ctx context.Context, id string, tags []string) error
	// InactiveSince returns the ids of profiles with no activity at or after
	// the cutoff. Feeds the inactivity sweep.
	InactiveSince(ctx context.Context, cutoff time.Time) ([]string, error)
}

// Persistence bundles the repositories behind one connection lifecycle.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	ProfileRepository() ProfileRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
