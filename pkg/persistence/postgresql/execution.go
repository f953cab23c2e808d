package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
)

const executionColumns = `
	id
  , workflow_id
  , subject_id
  , current_step_id
  , status
  , started_at
  , completed_at
  , wait_until
  , context
  , execution_log
`

// ExecutionRepository handles execution-related database operations. The
// execution log travels embedded as JSONB; the partial index on wait_until
// serves the scheduler's due query.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := "SELECT " + executionColumns + " FROM executions WHERE id = $1"

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("execution %s: %w", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to get execution %s: %w", id, err)
	}

	return execution, nil
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	contextJSON, err := json.Marshal(execution.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	logJSON, err := json.Marshal(execution.Log)
	if err != nil {
		return fmt.Errorf("failed to marshal execution log: %w", err)
	}

	query := `
		INSERT INTO executions (id, workflow_id, subject_id, current_step_id, status, started_at, completed_at, wait_until, context, execution_log)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			current_step_id = EXCLUDED.current_step_id,
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			wait_until = EXCLUDED.wait_until,
			context = EXCLUDED.context,
			execution_log = EXCLUDED.execution_log
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.SubjectID,
		execution.CurrentStepID,
		execution.Status,
		execution.StartedAt,
		execution.CompletedAt,
		execution.WaitUntil,
		contextJSON,
		logJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	query := "SELECT " + executionColumns + " FROM executions WHERE workflow_id = $1 ORDER BY started_at DESC"

	return r.queryExecutions(ctx, query, workflowID)
}

func (r *ExecutionRepository) DueResumptions(ctx context.Context, before time.Time) ([]*models.WorkflowExecution, error) {
	query := "SELECT " + executionColumns + ` FROM executions
		WHERE status = 'running' AND wait_until IS NOT NULL AND wait_until <= $1
		ORDER BY wait_until ASC`

	return r.queryExecutions(ctx, query, before)
}

func (r *ExecutionRepository) queryExecutions(ctx context.Context, query string, args ...any) ([]*models.WorkflowExecution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	var (
		execution   models.WorkflowExecution
		completedAt sql.NullTime
		waitUntil   sql.NullTime
		contextJSON []byte
		logJSON     []byte
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.SubjectID,
		&execution.CurrentStepID,
		&execution.Status,
		&execution.StartedAt,
		&completedAt,
		&waitUntil,
		&contextJSON,
		&logJSON,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		execution.CompletedAt = &completedAt.Time
	}

	if waitUntil.Valid {
		execution.WaitUntil = &waitUntil.Time
	}

	if err := json.Unmarshal(contextJSON, &execution.Context); err != nil {
		return nil, fmt.Errorf("failed to unmarshal context: %w", err)
	}

	if err := json.Unmarshal(logJSON, &execution.Log); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution log: %w", err)
	}

	return &execution, nil
}
