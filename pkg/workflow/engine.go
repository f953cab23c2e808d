package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/windward-io/windward/pkg/eventbus"
	"github.com/windward-io/windward/pkg/events"
	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/otelhelper"
	"github.com/windward-io/windward/pkg/persistence"
	"github.com/windward-io/windward/pkg/protocol"
	"github.com/windward-io/windward/pkg/registry"
)

// maxStepsPerAdvance bounds a single advance pass. Graph validation rejects
// cycles at registration, so any execution hitting this guard is a
// configuration bug, not a long workflow.
const maxStepsPerAdvance = 100

const defaultMaxAttempts = 3

var ErrWorkflowInactive = errors.New("workflow is not active")

// Engine drives workflow executions step by step. Every execution mutation
// goes through a per-execution-id mutex, so there is never more than one
// concurrent advance for the same execution.
type Engine struct {
	logger     *slog.Logger
	catalog    *Catalog
	executions persistence.ExecutionRepository
	registry   *registry.Registry
	eventBus   eventbus.EventBus
	tracer     trace.Tracer

	retryBackoff time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(
	logger *slog.Logger,
	catalog *Catalog,
	executions persistence.ExecutionRepository,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *Engine {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("windward")
	}

	return &Engine{
		logger:       logger.With("module", "workflow_engine"),
		catalog:      catalog,
		executions:   executions,
		registry:     registry,
		eventBus:     eventBus,
		tracer:       tracer,
		retryBackoff: time.Second,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Trigger starts a new execution of the workflow for one subject and
// advances it as far as it can go in-process. The returned execution
// reflects the state after the initial advance.
func (e *Engine) Trigger(ctx context.Context, workflowID, subjectID string, triggerData map[string]any) (*models.WorkflowExecution, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.trigger",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.SubjectIDKey, subjectID),
	)
	defer span.End()

	workflow, err := e.catalog.Get(workflowID)
	if err != nil {
		otelhelper.SetError(span, err)
		return nil, fmt.Errorf("failed to trigger workflow %s: %w", workflowID, err)
	}

	if !workflow.IsActive() {
		otelhelper.SetError(span, ErrWorkflowInactive)
		return nil, fmt.Errorf("workflow %s: %w", workflowID, ErrWorkflowInactive)
	}

	execution := models.NewWorkflowExecution(workflow, subjectID, triggerData)
	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, execution.ID))

	if err := e.executions.Save(ctx, execution); err != nil {
		otelhelper.SetError(span, err)
		return nil, fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
	}

	e.catalog.RecordTriggered(ctx, workflowID)

	e.publish(ctx, execution, events.ExecutionStarted{
		BaseEvent:   events.NewBase(events.ExecutionStartedEvent, workflowID, execution.ID, subjectID),
		TriggerData: triggerData,
	})

	e.logger.InfoContext(ctx, "Workflow triggered",
		"workflow_id", workflowID,
		"execution_id", execution.ID,
		"subject_id", subjectID)

	if err := e.Advance(ctx, execution.ID); err != nil {
		otelhelper.SetError(span, err)
		return execution, err
	}

	return e.executions.GetByID(ctx, execution.ID)
}

// Advance runs the execution forward until it suspends, pauses, finishes or
// hits the step guard. Safe to call on executions that cannot move; those
// calls are no-ops.
func (e *Engine) Advance(ctx context.Context, executionID string) error {
	lock := e.lockFor(executionID)
	lock.Lock()
	defer lock.Unlock()

	execution, err := e.executions.GetByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.IsTerminal() || execution.Status == models.ExecutionStatusPaused {
		return nil
	}

	if execution.WaitUntil != nil {
		if time.Now().UTC().Before(*execution.WaitUntil) {
			return nil
		}

		execution.WaitUntil = nil

		e.publish(ctx, execution, events.ExecutionResumed{
			BaseEvent: events.NewBase(events.ExecutionResumedEvent, execution.WorkflowID, execution.ID, execution.SubjectID),
		})
	}

	workflow, err := e.catalog.Get(execution.WorkflowID)
	if err != nil {
		return e.failExecution(ctx, execution, "", fmt.Errorf("workflow %s no longer registered", execution.WorkflowID))
	}

	logger := e.logger.With(
		"workflow_id", workflow.ID,
		"execution_id", execution.ID,
		"subject_id", execution.SubjectID)

	for steps := 0; ; steps++ {
		if steps >= maxStepsPerAdvance {
			return e.failExecution(ctx, execution, execution.CurrentStepID,
				fmt.Errorf("advance exceeded %d steps", maxStepsPerAdvance))
		}

		if paused, err := e.pauseRequested(ctx, execution); err != nil {
			return err
		} else if paused {
			execution.Status = models.ExecutionStatusPaused

			if err := e.executions.Save(ctx, execution); err != nil {
				return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
			}

			logger.InfoContext(ctx, "Execution paused between steps")

			return nil
		}

		step, ok := workflow.StepByID(execution.CurrentStepID)
		if !ok {
			return e.failExecution(ctx, execution, execution.CurrentStepID,
				fmt.Errorf("step %s not found in workflow %s", execution.CurrentStepID, workflow.ID))
		}

		outcome, stepErr := e.runStep(ctx, step, execution, logger)

		if stepErr != nil {
			switch step.EffectiveFailurePolicy() {
			case models.FailurePolicyContinue:
				execution.AppendLog(step.ID, models.LogOutcomeFailed, stepErr.Error(), nil)
				e.publishStepFinished(ctx, execution, step, models.LogOutcomeFailed, step.NextStepID, nil)

				logger.WarnContext(ctx, "Step failed, continuing",
					"step_id", step.ID, "error", stepErr)

				if step.NextStepID == nil {
					return e.completeExecution(ctx, execution)
				}

				execution.CurrentStepID = *step.NextStepID
			default:
				return e.failExecution(ctx, execution, step.ID, stepErr)
			}
		} else {
			execution.AppendLog(step.ID, models.LogOutcomeSuccess, outcome.Message, outcome.Data)
			e.publishStepFinished(ctx, execution, step, models.LogOutcomeSuccess, outcome.NextStepID, outcome.Data)

			if outcome.Suspend {
				if outcome.NextStepID == nil {
					return e.completeExecution(ctx, execution)
				}

				resumeAt := outcome.ResumeAt
				execution.CurrentStepID = *outcome.NextStepID
				execution.WaitUntil = &resumeAt

				if paused, err := e.pauseRequested(ctx, execution); err != nil {
					return err
				} else if paused {
					execution.Status = models.ExecutionStatusPaused
				}

				if err := e.executions.Save(ctx, execution); err != nil {
					return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
				}

				e.publish(ctx, execution, events.ExecutionSuspended{
					BaseEvent: events.NewBase(events.ExecutionSuspendedEvent, execution.WorkflowID, execution.ID, execution.SubjectID),
					ResumeAt:  resumeAt,
				})

				logger.InfoContext(ctx, "Execution suspended",
					"step_id", step.ID, "resume_at", resumeAt)

				return nil
			}

			if outcome.NextStepID == nil {
				return e.completeExecution(ctx, execution)
			}

			execution.CurrentStepID = *outcome.NextStepID
		}

		// A pause persisted while the step ran must survive this save.
		paused, err := e.pauseRequested(ctx, execution)
		if err != nil {
			return err
		}

		if paused {
			execution.Status = models.ExecutionStatusPaused
		}

		if err := e.executions.Save(ctx, execution); err != nil {
			return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
		}

		if paused {
			logger.InfoContext(ctx, "Execution paused between steps")

			return nil
		}
	}
}

// Pause requests the execution to stop advancing. The request lands between
// steps; a step already running finishes first.
func (e *Engine) Pause(ctx context.Context, executionID string) error {
	execution, err := e.executions.GetByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.IsTerminal() {
		return fmt.Errorf("execution %s already finished", executionID)
	}

	if execution.Status == models.ExecutionStatusPaused {
		return nil
	}

	execution.Status = models.ExecutionStatusPaused

	if err := e.executions.Save(ctx, execution); err != nil {
		return fmt.Errorf("failed to persist execution %s: %w", executionID, err)
	}

	e.publish(ctx, execution, events.ExecutionPaused{
		BaseEvent: events.NewBase(events.ExecutionPausedEvent, execution.WorkflowID, execution.ID, execution.SubjectID),
	})

	e.logger.InfoContext(ctx, "Execution pause requested", "execution_id", executionID)

	return nil
}

// Resume restarts a paused execution. It is a no-op for executions in any
// other state, so retried resume calls are harmless.
func (e *Engine) Resume(ctx context.Context, executionID string) error {
	lock := e.lockFor(executionID)
	lock.Lock()

	execution, err := e.executions.GetByID(ctx, executionID)
	if err != nil {
		lock.Unlock()
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.Status != models.ExecutionStatusPaused {
		lock.Unlock()
		return nil
	}

	execution.Status = models.ExecutionStatusRunning

	if err := e.executions.Save(ctx, execution); err != nil {
		lock.Unlock()
		return fmt.Errorf("failed to persist execution %s: %w", executionID, err)
	}

	lock.Unlock()

	e.publish(ctx, execution, events.ExecutionResumed{
		BaseEvent: events.NewBase(events.ExecutionResumedEvent, execution.WorkflowID, execution.ID, execution.SubjectID),
	})

	e.logger.InfoContext(ctx, "Execution resumed", "execution_id", executionID)

	return e.Advance(ctx, executionID)
}

// GetExecution returns the current persisted state of an execution.
func (e *Engine) GetExecution(ctx context.Context, executionID string) (*models.WorkflowExecution, error) {
	return e.executions.GetByID(ctx, executionID)
}

func (e *Engine) runStep(ctx context.Context, step *models.WorkflowStep, execution *models.WorkflowExecution, logger *slog.Logger) (*protocol.StepOutcome, error) {
	executor, err := e.registry.ExecutorFor(step.Kind)
	if err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
		attribute.String(otelhelper.WorkflowIDKey, execution.WorkflowID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepKindKey, string(step.Kind)),
	)
	defer span.End()

	attempts := 1
	if step.EffectiveFailurePolicy() == models.FailurePolicyRetryThenFail {
		attempts = step.MaxAttempts
		if attempts < 1 {
			attempts = defaultMaxAttempts
		}
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		outcome, err := executor.Execute(ctx, step, execution, logger)
		if err == nil {
			return outcome, nil
		}

		lastErr = err

		if attempt < attempts {
			logger.WarnContext(ctx, "Step attempt failed, retrying",
				"step_id", step.ID, "attempt", attempt, "error", err)

			select {
			case <-time.After(e.retryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				otelhelper.SetError(span, ctx.Err())
				return nil, ctx.Err()
			}
		}
	}

	otelhelper.SetError(span, lastErr)

	return nil, lastErr
}

// pauseRequested re-reads the persisted status so a pause issued while the
// advance loop is running lands at the next step boundary.
func (e *Engine) pauseRequested(ctx context.Context, execution *models.WorkflowExecution) (bool, error) {
	latest, err := e.executions.GetByID(ctx, execution.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load execution %s: %w", execution.ID, err)
	}

	return latest.Status == models.ExecutionStatusPaused, nil
}

func (e *Engine) completeExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	execution.Complete()

	if err := e.executions.Save(ctx, execution); err != nil {
		return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
	}

	e.catalog.RecordCompleted(ctx, execution.WorkflowID)

	e.publish(ctx, execution, events.ExecutionCompleted{
		BaseEvent: events.NewBase(events.ExecutionCompletedEvent, execution.WorkflowID, execution.ID, execution.SubjectID),
		Duration:  time.Since(execution.StartedAt),
	})

	e.logger.InfoContext(ctx, "Execution completed",
		"workflow_id", execution.WorkflowID,
		"execution_id", execution.ID,
		"steps_logged", len(execution.Log))

	e.releaseLock(execution.ID)

	return nil
}

func (e *Engine) failExecution(ctx context.Context, execution *models.WorkflowExecution, stepID string, cause error) error {
	execution.AppendLog(stepID, models.LogOutcomeFailed, cause.Error(), nil)
	execution.Fail()

	if err := e.executions.Save(ctx, execution); err != nil {
		return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
	}

	e.catalog.RecordFailed(ctx, execution.WorkflowID)

	e.publish(ctx, execution, events.ExecutionFailed{
		BaseEvent: events.NewBase(events.ExecutionFailedEvent, execution.WorkflowID, execution.ID, execution.SubjectID),
		StepID:    stepID,
		Error:     cause.Error(),
		Duration:  time.Since(execution.StartedAt),
	})

	e.logger.ErrorContext(ctx, "Execution failed",
		"workflow_id", execution.WorkflowID,
		"execution_id", execution.ID,
		"step_id", stepID,
		"error", cause)

	e.releaseLock(execution.ID)

	return nil
}

func (e *Engine) publishStepFinished(ctx context.Context, execution *models.WorkflowExecution, step *models.WorkflowStep, outcome models.LogOutcome, next *string, data map[string]any) {
	event := events.StepFinished{
		BaseEvent: events.NewBase(events.StepFinishedEvent, execution.WorkflowID, execution.ID, execution.SubjectID),
		StepID:    step.ID,
		Outcome:   string(outcome),
		Data:      data,
	}
	if next != nil {
		event.NextStepID = *next
	}

	e.publish(ctx, execution, event)
}

func (e *Engine) publish(ctx context.Context, execution *models.WorkflowExecution, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, execution.ID, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish lifecycle event",
			"execution_id", execution.ID,
			"event_type", event.GetType(),
			"error", err)
	}
}

func (e *Engine) lockFor(executionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[executionID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[executionID] = lock
	}

	return lock
}

// releaseLock drops the keyed mutex for a terminal execution. Terminal
// executions never advance again, so the entry is garbage.
func (e *Engine) releaseLock(executionID string) {
	e.mu.Lock()
	delete(e.locks, executionID)
	e.mu.Unlock()
}
