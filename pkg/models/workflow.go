package models

import (
	"fmt"
	"time"
)

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusInactive WorkflowStatus = "inactive"
)

// Trigger binds an event type plus a conjunctive condition set to one or
// more workflows. A trigger with no conditions always matches.
type Trigger struct {
	ID         string      `json:"id"          validate:"required"`
	Name       string      `json:"name"        validate:"required,min=3"`
	Event      string      `json:"event"       validate:"required"`
	Conditions []Condition `json:"conditions,omitempty" validate:"dive"`
	Workflows  []string    `json:"workflows"   validate:"required,min=1"`
}

// Matches reports whether the trigger fires for the given event payload.
func (t *Trigger) Matches(eventType string, data map[string]any) bool {
	if t.Event != eventType {
		return false
	}

	return EvaluateAll(t.Conditions, data)
}

// WorkflowStats carries lifetime counters for one workflow definition.
type WorkflowStats struct {
	Triggered int64 `json:"triggered"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Workflow is an immutable step-graph definition. Definitions are created at
// configuration time and never mutated by running executions; many
// executions reference one workflow by id.
type Workflow struct {
	ID          string          `json:"id"          validate:"required"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Status      WorkflowStatus  `json:"status"      validate:"required"`
	Trigger     Trigger         `json:"trigger"`
	Steps       []*WorkflowStep `json:"steps"       validate:"required,min=1"`
	Stats       WorkflowStats   `json:"stats"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsActive reports whether the workflow may be triggered.
func (w *Workflow) IsActive() bool {
	return w.Status == WorkflowStatusActive
}

// EntryStep returns the workflow's first step.
func (w *Workflow) EntryStep() *WorkflowStep {
	if len(w.Steps) == 0 {
		return nil
	}

	return w.Steps[0]
}

// StepByID finds a step within the workflow.
func (w *Workflow) StepByID(id string) (*WorkflowStep, bool) {
	for _, step := range w.Steps {
		if step.ID == id {
			return step, true
		}
	}

	return nil, false
}

// ValidateGraph checks the structural invariants of the step graph: unique
// step ids, successor references that resolve, and no cycle reachable from
// the entry step. A cyclic graph would otherwise advance forever.
func (w *Workflow) ValidateGraph() error {
	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow %s: no steps", w.ID)
	}

	seen := make(map[string]*WorkflowStep, len(w.Steps))

	for _, step := range w.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("workflow %s: %w", w.ID, err)
		}

		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("workflow %s: duplicate step id %q", w.ID, step.ID)
		}

		seen[step.ID] = step
	}

	for _, step := range w.Steps {
		for _, successor := range []*string{step.NextStepID, step.AlternateStepID} {
			if successor == nil {
				continue
			}

			if _, ok := seen[*successor]; !ok {
				return fmt.Errorf("workflow %s: step %q references unknown step %q", w.ID, step.ID, *successor)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(w.Steps))

	var visit func(id string) error

	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("workflow %s: cycle through step %q", w.ID, id)
		case done:
			return nil
		}

		state[id] = visiting
		step := seen[id]

		for _, successor := range []*string{step.NextStepID, step.AlternateStepID} {
			if successor == nil {
				continue
			}

			if err := visit(*successor); err != nil {
				return err
			}
		}

		state[id] = done

		return nil
	}

	return visit(w.Steps[0].ID)
}
