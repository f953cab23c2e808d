package models

import (
	"errors"
	"fmt"
)

// StepKind identifies the behaviour of a workflow step.
type StepKind string

const (
	StepKindEmail     StepKind = "email"
	StepKindWait      StepKind = "wait"
	StepKindCondition StepKind = "condition"
	StepKindTagUpdate StepKind = "tag_update"
	StepKindWebhook   StepKind = "webhook"
)

// FailurePolicy declares how the engine reacts when a step executor errors.
type FailurePolicy string

const (
	// FailurePolicyFail marks the execution failed and stops advancing.
	FailurePolicyFail FailurePolicy = "fail"
	// FailurePolicyContinue logs the failure and moves to the default successor.
	FailurePolicyContinue FailurePolicy = "continue"
	// FailurePolicyRetryThenFail retries the executor before failing the execution.
	FailurePolicyRetryThenFail FailurePolicy = "retry_then_fail"
)

// EmailStepConfig configures a templated email send.
type EmailStepConfig struct {
	TemplateID string         `json:"template_id"           validate:"required"`
	Data       map[string]any `json:"data,omitempty"`
}

// WaitStepConfig suspends the execution for a number of minutes. Zero is an
// immediate pass-through.
type WaitStepConfig struct {
	DelayMinutes int `json:"delay_minutes" validate:"gte=0"`
}

// ConditionStepConfig branches on a conjunctive condition list.
type ConditionStepConfig struct {
	Conditions []Condition `json:"conditions" validate:"required,min=1,dive"`
}

// TagUpdateStepConfig applies tags to the subject's profile. Tag values are
// rendered through the template package, so "lastAlertSent:{{now}}" works.
type TagUpdateStepConfig struct {
	Tags []string `json:"tags" validate:"required,min=1"`
}

// WebhookStepConfig posts a best-effort notification to an external URL.
type WebhookStepConfig struct {
	URL        string         `json:"url"                   validate:"required,url"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

// WorkflowStep is one node in a workflow graph. Exactly one config variant,
// matching Kind, must be set; Validate enforces this so a step can never
// reach its executor missing the configuration its kind requires.
type WorkflowStep struct {
	ID              string        `json:"id"                          validate:"required"`
	Kind            StepKind      `json:"kind"                        validate:"required"`
	Name            string        `json:"name"                        validate:"required"`
	FailurePolicy   FailurePolicy `json:"failure_policy,omitempty"`
	MaxAttempts     int           `json:"max_attempts,omitempty"      validate:"gte=0"`
	NextStepID      *string       `json:"next_step_id,omitempty"`
	AlternateStepID *string       `json:"alternate_step_id,omitempty"`

	Email     *EmailStepConfig     `json:"email,omitempty"`
	Wait      *WaitStepConfig      `json:"wait,omitempty"`
	Condition *ConditionStepConfig `json:"condition,omitempty"`
	TagUpdate *TagUpdateStepConfig `json:"tag_update,omitempty"`
	Webhook   *WebhookStepConfig   `json:"webhook,omitempty"`
}

var ErrStepConfigMismatch = errors.New("step configuration does not match step kind")

// EffectiveFailurePolicy resolves the policy for this step, falling back to
// the per-kind default: webhooks are advisory, everything else is
// control-flow critical.
func (s *WorkflowStep) EffectiveFailurePolicy() FailurePolicy {
	if s.FailurePolicy != "" {
		return s.FailurePolicy
	}

	if s.Kind == StepKindWebhook {
		return FailurePolicyContinue
	}

	return FailurePolicyFail
}

// Validate checks that the step carries the one config variant its kind
// requires, and only that one.
func (s *WorkflowStep) Validate() error {
	variants := map[StepKind]bool{
		StepKindEmail:     s.Email != nil,
		StepKindWait:      s.Wait != nil,
		StepKindCondition: s.Condition != nil,
		StepKindTagUpdate: s.TagUpdate != nil,
		StepKindWebhook:   s.Webhook != nil,
	}

	matching, known := variants[s.Kind]
	if !known {
		return fmt.Errorf("step %s: unknown kind %q", s.ID, s.Kind)
	}

	if !matching {
		return fmt.Errorf("step %s (%s): missing %s configuration: %w", s.ID, s.Kind, s.Kind, ErrStepConfigMismatch)
	}

	for kind, set := range variants {
		if set && kind != s.Kind {
			return fmt.Errorf("step %s (%s): stray %s configuration: %w", s.ID, s.Kind, kind, ErrStepConfigMismatch)
		}
	}

	if s.AlternateStepID != nil && s.Kind != StepKindCondition {
		return fmt.Errorf("step %s (%s): alternate_step_id is only valid on condition steps", s.ID, s.Kind)
	}

	switch s.FailurePolicy {
	case "", FailurePolicyFail, FailurePolicyContinue, FailurePolicyRetryThenFail:
	default:
		return fmt.Errorf("step %s: unknown failure policy %q", s.ID, s.FailurePolicy)
	}

	return nil
}
