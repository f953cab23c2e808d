package file

import (
	"context"
	"fmt"
	"time"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
)

// ExecutionRepository stores workflow executions, execution log included, as
// JSON documents. DueResumptions scans the directory; the postgres
// implementation answers the same query with an index.
type ExecutionRepository struct {
	store *documentStore
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{store: newDocumentStore(root, "executions")}
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution

	found, err := r.store.read(id, &execution)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("execution %s: %w", id, persistence.ErrExecutionNotFound)
	}

	return &execution, nil
}

func (r *ExecutionRepository) Save(_ context.Context, execution *models.WorkflowExecution) error {
	return r.store.write(execution.ID, execution)
}

func (r *ExecutionRepository) ByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	executions, err := r.all(ctx)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.WorkflowExecution, 0)

	for _, execution := range executions {
		if execution.WorkflowID == workflowID {
			matching = append(matching, execution)
		}
	}

	return matching, nil
}

func (r *ExecutionRepository) DueResumptions(ctx context.Context, before time.Time) ([]*models.WorkflowExecution, error) {
	executions, err := r.all(ctx)
	if err != nil {
		return nil, err
	}

	due := make([]*models.WorkflowExecution, 0)

	for _, execution := range executions {
		if execution.Status != models.ExecutionStatusRunning || execution.WaitUntil == nil {
			continue
		}

		if !execution.WaitUntil.After(before) {
			due = append(due, execution)
		}
	}

	return due, nil
}

func (r *ExecutionRepository) all(ctx context.Context) ([]*models.WorkflowExecution, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, err
	}

	executions := make([]*models.WorkflowExecution, 0, len(ids))

	for _, id := range ids {
		execution, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, nil
}
