// Package mocks provides testify mocks for the protocol, persistence and
// eventbus interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/windward-io/windward/pkg/models"
)

// MockWorkflowRepository is a mock implementation of
// persistence.WorkflowRepository.
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	args := m.Called(ctx)

	if workflows, ok := args.Get(0).([]*models.Workflow); ok {
		return workflows, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockWorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)

	if workflow, ok := args.Get(0).(*models.Workflow); ok {
		return workflow, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockWorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockWorkflowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockExecutionRepository is a mock implementation of
// persistence.ExecutionRepository.
type MockExecutionRepository struct {
	mock.Mock
}

func (m *MockExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	args := m.Called(ctx, id)

	if execution, ok := args.Get(0).(*models.WorkflowExecution); ok {
		return execution, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

func (m *MockExecutionRepository) ByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	args := m.Called(ctx, workflowID)

	if executions, ok := args.Get(0).([]*models.WorkflowExecution); ok {
		return executions, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockExecutionRepository) DueResumptions(ctx context.Context, before time.Time) ([]*models.WorkflowExecution, error) {
	args := m.Called(ctx, before)

	if executions, ok := args.Get(0).([]*models.WorkflowExecution); ok {
		return executions, args.Error(1)
	}

	return nil, args.Error(1)
}
