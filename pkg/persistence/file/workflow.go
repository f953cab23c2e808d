package file

import (
	"context"
	"fmt"
	"time"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
)

// WorkflowRepository stores workflow definitions as JSON documents.
type WorkflowRepository struct {
	store *documentStore
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{store: newDocumentStore(root, "workflows")}
}

func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	found, err := r.store.read(id, &workflow)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("workflow %s: %w", id, persistence.ErrWorkflowNotFound)
	}

	return &workflow, nil
}

func (r *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	workflow.UpdatedAt = time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = workflow.UpdatedAt
	}

	return r.store.write(workflow.ID, workflow)
}

func (r *WorkflowRepository) Delete(_ context.Context, id string) error {
	return r.store.remove(id)
}
