// Package events defines the business events the engine ingests and the
// lifecycle events it publishes.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Bus topics.
const Topic = "windward.events"                    // Ingested business events
const ExecutionTopic = "windward.executions"       // Execution lifecycle events
const EventMetadataKey = "key"                     // Watermill metadata: partition key
const EventTypeMetadataKey = "event_type"          // Watermill metadata: payload type

// Business event types emitted by the booking, signup, pricing and
// inactivity collaborators. The router matches these against workflow
// triggers; the set is open, these are the ones the shipped workflows use.
const (
	EventUserCreated      = "user.created"
	EventUserInactive     = "user.inactive"
	EventBookingConfirmed = "booking.confirmed"
	EventPriceDropped     = "price.dropped"
	EventSearchAbandoned  = "search.abandoned"
)

// Execution lifecycle event types.
const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionPausedEvent    EventType = "execution.paused"
	ExecutionSuspendedEvent EventType = "execution.suspended"
	ExecutionResumedEvent   EventType = "execution.resumed"
	StepFinishedEvent       EventType = "execution.step.finished"
)

// AutomationEvent is the sole ingestion payload: a typed business fact about
// one subject.
type AutomationEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"       validate:"required"`
	SubjectID string         `json:"subject_id" validate:"required"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source,omitempty"`
}

// NewAutomationEvent builds an event with id and timestamp filled in.
func NewAutomationEvent(eventType, subjectID string, data map[string]any, source string) AutomationEvent {
	return AutomationEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		SubjectID: subjectID,
		Data:      data,
		Timestamp: time.Now().UTC(),
		Source:    source,
	}
}

type BaseEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	WorkflowID  string    `json:"workflow_id"`
	ExecutionID string    `json:"execution_id"`
	SubjectID   string    `json:"subject_id"`
}

type ExecutionStarted struct {
	BaseEvent

	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ExecutionCompleted struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct {
	BaseEvent

	StepID   string        `json:"step_id"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

type ExecutionPaused struct {
	BaseEvent
}

func (e ExecutionPaused) GetType() EventType { return ExecutionPausedEvent }

// ExecutionSuspended marks a timed wait. Unlike a pause, the execution is
// still running and resumes on its own once ResumeAt passes.
type ExecutionSuspended struct {
	BaseEvent

	ResumeAt time.Time `json:"resume_at"`
}

func (e ExecutionSuspended) GetType() EventType { return ExecutionSuspendedEvent }

type ExecutionResumed struct {
	BaseEvent
}

func (e ExecutionResumed) GetType() EventType { return ExecutionResumedEvent }

type StepFinished struct {
	BaseEvent

	StepID     string         `json:"step_id"`
	Outcome    string         `json:"outcome"`
	NextStepID string         `json:"next_step_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

func (e StepFinished) GetType() EventType { return StepFinishedEvent }

// NewBase fills the shared lifecycle event fields.
func NewBase(eventType EventType, workflowID, executionID, subjectID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		WorkflowID:  workflowID,
		ExecutionID: executionID,
		SubjectID:   subjectID,
	}
}
