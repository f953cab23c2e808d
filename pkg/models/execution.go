package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the lifecycle state of one workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusPaused    ExecutionStatus = "paused"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// LogOutcome classifies one execution log entry.
type LogOutcome string

const (
	LogOutcomeSuccess LogOutcome = "success"
	LogOutcomeFailed  LogOutcome = "failed"
	LogOutcomeSkipped LogOutcome = "skipped"
)

// ExecutionLogEntry is one record in an execution's append-only audit trail.
// Entries are never edited after being written.
type ExecutionLogEntry struct {
	StepID    string         `json:"step_id"`
	Timestamp time.Time      `json:"timestamp"`
	Outcome   LogOutcome     `json:"outcome"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// WorkflowExecution is one running or finished instance of a workflow for
// one subject. It belongs to exactly one workflow and one subject; sibling
// executions share no mutable state. Only the owning advance loop writes to
// an execution record.
type WorkflowExecution struct {
	ID            string              `json:"id"`
	WorkflowID    string              `json:"workflow_id"`
	SubjectID     string              `json:"subject_id"`
	CurrentStepID string              `json:"current_step_id"`
	Status        ExecutionStatus     `json:"status"`
	StartedAt     time.Time           `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	WaitUntil     *time.Time          `json:"wait_until,omitempty"`
	Context       map[string]any      `json:"context"`
	Log           []ExecutionLogEntry `json:"execution_log"`
}

// NewWorkflowExecution creates a running execution positioned at the
// workflow's entry step, with a synthetic trigger log entry.
func NewWorkflowExecution(workflow *Workflow, subjectID string, triggerData map[string]any) *WorkflowExecution {
	now := time.Now().UTC()

	context := map[string]any{
		"trigger_data": triggerData,
		"subject_id":   subjectID,
		"workflow_id":  workflow.ID,
	}

	return &WorkflowExecution{
		ID:            GenerateExecutionID(),
		WorkflowID:    workflow.ID,
		SubjectID:     subjectID,
		CurrentStepID: workflow.EntryStep().ID,
		Status:        ExecutionStatusRunning,
		StartedAt:     now,
		Context:       context,
		Log: []ExecutionLogEntry{{
			StepID:    "trigger",
			Timestamp: now,
			Outcome:   LogOutcomeSuccess,
			Message:   "workflow triggered",
			Data:      triggerData,
		}},
	}
}

// GenerateExecutionID generates a unique execution id.
func GenerateExecutionID() string {
	return fmt.Sprintf("exec-%s", uuid.New().String()[:8])
}

// AppendLog appends an entry to the execution's audit trail.
func (e *WorkflowExecution) AppendLog(stepID string, outcome LogOutcome, message string, data map[string]any) {
	e.Log = append(e.Log, ExecutionLogEntry{
		StepID:    stepID,
		Timestamp: time.Now().UTC(),
		Outcome:   outcome,
		Message:   message,
		Data:      data,
	})
}

// TriggerData returns the payload the execution was triggered with.
func (e *WorkflowExecution) TriggerData() map[string]any {
	data, _ := e.Context["trigger_data"].(map[string]any)

	return data
}

// IsTerminal reports whether the execution can never advance again.
func (e *WorkflowExecution) IsTerminal() bool {
	return e.Status == ExecutionStatusCompleted || e.Status == ExecutionStatusFailed
}

// Complete marks the execution finished.
func (e *WorkflowExecution) Complete() {
	now := time.Now().UTC()
	e.Status = ExecutionStatusCompleted
	e.CompletedAt = &now
	e.WaitUntil = nil
}

// Fail marks the execution terminally failed.
func (e *WorkflowExecution) Fail() {
	now := time.Now().UTC()
	e.Status = ExecutionStatusFailed
	e.CompletedAt = &now
	e.WaitUntil = nil
}
