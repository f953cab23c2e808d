// Package models defines the core domain models for the automation workflow engine.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConditionOperator identifies the comparison applied by a Condition.
type ConditionOperator string

const (
	OperatorEquals    ConditionOperator = "equals"
	OperatorNotEquals ConditionOperator = "not_equals"
	OperatorContains  ConditionOperator = "contains"
	OperatorGT        ConditionOperator = "gt"
	OperatorLT        ConditionOperator = "lt"
	OperatorGTE       ConditionOperator = "gte"
	OperatorLTE       ConditionOperator = "lte"
	OperatorIn        ConditionOperator = "in"
	OperatorNotIn     ConditionOperator = "not_in"
	OperatorExists    ConditionOperator = "exists"
)

// Condition is a single field/operator/value predicate evaluated against a
// context record. Evaluation is pure and safe for concurrent use.
type Condition struct {
	Field    string            `json:"field"    validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Value    any               `json:"value,omitempty"`
}

// Evaluate resolves the condition's field as a dot-path into the context and
// applies the operator. A missing path resolves to nil, which is falsy for
// every operator except not_equals and not_in. Malformed comparisons resolve
// to false rather than erroring, so a bad condition never wedges a workflow.
func (c Condition) Evaluate(context map[string]any) bool {
	value := lookupPath(context, c.Field)

	switch c.Operator {
	case OperatorEquals:
		return equal(value, c.Value)
	case OperatorNotEquals:
		return !equal(value, c.Value)
	case OperatorContains:
		if value == nil {
			return false
		}

		needle, ok := c.Value.(string)
		if !ok {
			return false
		}

		return strings.Contains(stringify(value), needle)
	case OperatorGT:
		return compareNumeric(value, c.Value, func(a, b float64) bool { return a > b })
	case OperatorLT:
		return compareNumeric(value, c.Value, func(a, b float64) bool { return a < b })
	case OperatorGTE:
		return compareNumeric(value, c.Value, func(a, b float64) bool { return a >= b })
	case OperatorLTE:
		return compareNumeric(value, c.Value, func(a, b float64) bool { return a <= b })
	case OperatorIn:
		return inList(value, c.Value)
	case OperatorNotIn:
		return !inList(value, c.Value)
	case OperatorExists:
		return value != nil
	default:
		return false
	}
}

// EvaluateAll applies every condition conjunctively. An empty list always
// matches.
func EvaluateAll(conditions []Condition, context map[string]any) bool {
	for _, condition := range conditions {
		if !condition.Evaluate(context) {
			return false
		}
	}

	return true
}

// lookupPath traverses a dot-separated path into nested maps. Any missing or
// non-map segment yields nil.
func lookupPath(context map[string]any, path string) any {
	if path == "" {
		return nil
	}

	var current any = context

	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current, ok = node[segment]
		if !ok {
			return nil
		}
	}

	return current
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if fa, aok := toFloat(a); aok {
		if fb, bok := toFloat(b); bok {
			return fa == fb
		}
	}

	return stringify(a) == stringify(b)
}

func compareNumeric(a, b any, cmp func(a, b float64) bool) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)

	if !aok || !bok {
		return false
	}

	return cmp(fa, fb)
}

func inList(value, list any) bool {
	items, ok := list.([]any)
	if !ok {
		if strs, sok := list.([]string); sok {
			for _, item := range strs {
				if equal(value, item) {
					return true
				}
			}
		}

		return false
	}

	for _, item := range items {
		if equal(value, item) {
			return true
		}
	}

	return false
}

// toFloat coerces the operand types that show up in trigger payloads:
// JSON numbers, Go integers, numeric strings and timestamps.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}

		return 0, true
	case time.Time:
		return float64(n.UnixMilli()), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		if f, ok := toFloat(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}

		return fmt.Sprintf("%v", v)
	}
}
