package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCondition_Evaluate_Operators(t *testing.T) {
	context := map[string]any{
		"source":             "landing-page",
		"percentageDiscount": 22.5,
		"searchResults":      12,
		"destination":        "Lisbon",
		"hasBooked":          false,
		"cabin":              "economy",
	}

	tests := []struct {
		name      string
		condition Condition
		expected  bool
	}{
		{
			name:      "equals string match",
			condition: Condition{Field: "source", Operator: OperatorEquals, Value: "landing-page"},
			expected:  true,
		},
		{
			name:      "equals string mismatch",
			condition: Condition{Field: "source", Operator: OperatorEquals, Value: "admin"},
			expected:  false,
		},
		{
			name:      "equals bool",
			condition: Condition{Field: "hasBooked", Operator: OperatorEquals, Value: false},
			expected:  true,
		},
		{
			name:      "not_equals",
			condition: Condition{Field: "source", Operator: OperatorNotEquals, Value: "admin"},
			expected:  true,
		},
		{
			name:      "contains",
			condition: Condition{Field: "destination", Operator: OperatorContains, Value: "isb"},
			expected:  true,
		},
		{
			name:      "gt true",
			condition: Condition{Field: "percentageDiscount", Operator: OperatorGT, Value: 15},
			expected:  true,
		},
		{
			name:      "gt false on equal values",
			condition: Condition{Field: "searchResults", Operator: OperatorGT, Value: 12},
			expected:  false,
		},
		{
			name:      "gte boundary",
			condition: Condition{Field: "searchResults", Operator: OperatorGTE, Value: 12},
			expected:  true,
		},
		{
			name:      "lt",
			condition: Condition{Field: "percentageDiscount", Operator: OperatorLT, Value: 30},
			expected:  true,
		},
		{
			name:      "lte",
			condition: Condition{Field: "percentageDiscount", Operator: OperatorLTE, Value: 22.5},
			expected:  true,
		},
		{
			name:      "in",
			condition: Condition{Field: "cabin", Operator: OperatorIn, Value: []any{"economy", "business"}},
			expected:  true,
		},
		{
			name:      "not_in",
			condition: Condition{Field: "cabin", Operator: OperatorNotIn, Value: []any{"first"}},
			expected:  true,
		},
		{
			name:      "exists",
			condition: Condition{Field: "destination", Operator: OperatorExists},
			expected:  true,
		},
		{
			name:      "unknown operator is falsy",
			condition: Condition{Field: "destination", Operator: "matches"},
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.condition.Evaluate(context))
		})
	}
}

func TestCondition_Evaluate_MissingPath(t *testing.T) {
	context := map[string]any{"present": 1}

	assert.False(t, Condition{Field: "absent", Operator: OperatorEquals, Value: 1}.Evaluate(context))
	assert.False(t, Condition{Field: "absent", Operator: OperatorGTE, Value: 0}.Evaluate(context))
	assert.False(t, Condition{Field: "absent", Operator: OperatorExists}.Evaluate(context))
	assert.False(t, Condition{Field: "absent", Operator: OperatorContains, Value: "x"}.Evaluate(context))

	// not_equals and not_in stay truthy for missing fields.
	assert.True(t, Condition{Field: "absent", Operator: OperatorNotEquals, Value: "admin"}.Evaluate(context))
	assert.True(t, Condition{Field: "absent", Operator: OperatorNotIn, Value: []any{"a"}}.Evaluate(context))
}

func TestCondition_Evaluate_DotPath(t *testing.T) {
	context := map[string]any{
		"booking": map[string]any{
			"route": map[string]any{
				"origin": "LIS",
			},
		},
	}

	matched := Condition{Field: "booking.route.origin", Operator: OperatorEquals, Value: "LIS"}.Evaluate(context)
	assert.True(t, matched)

	assert.False(t, Condition{Field: "booking.route.missing", Operator: OperatorExists}.Evaluate(context))
	assert.False(t, Condition{Field: "booking.route.origin.deeper", Operator: OperatorExists}.Evaluate(context))
}

func TestCondition_Evaluate_NumericCoercion(t *testing.T) {
	now := time.Now().UTC()
	context := map[string]any{
		"discountString": "17",
		"lastAlertSent":  now.Add(-48 * time.Hour),
		"active":         true,
		"notANumber":     "soon",
	}

	assert.True(t, Condition{Field: "discountString", Operator: OperatorGTE, Value: 15}.Evaluate(context))
	assert.True(t, Condition{Field: "discountString", Operator: OperatorEquals, Value: 17}.Evaluate(context))

	// time.Time coerces to unix milliseconds.
	cutoff := now.Add(-24 * time.Hour).UnixMilli()
	assert.True(t, Condition{Field: "lastAlertSent", Operator: OperatorLT, Value: cutoff}.Evaluate(context))

	assert.True(t, Condition{Field: "active", Operator: OperatorGTE, Value: 1}.Evaluate(context))

	// Non-coercible operands never match a numeric operator.
	assert.False(t, Condition{Field: "notANumber", Operator: OperatorGT, Value: 0}.Evaluate(context))
	assert.False(t, Condition{Field: "discountString", Operator: OperatorGT, Value: "later"}.Evaluate(context))
}

func TestCondition_Evaluate_InStringSlice(t *testing.T) {
	context := map[string]any{"tier": "gold"}

	condition := Condition{Field: "tier", Operator: OperatorIn, Value: []string{"silver", "gold"}}
	assert.True(t, condition.Evaluate(context))
}

func TestEvaluateAll(t *testing.T) {
	context := map[string]any{
		"searchResults": 5,
		"timeOnResults": 45,
	}

	conditions := []Condition{
		{Field: "searchResults", Operator: OperatorGT, Value: 0},
		{Field: "timeOnResults", Operator: OperatorGT, Value: 30},
	}

	assert.True(t, EvaluateAll(conditions, context))

	conditions = append(conditions, Condition{Field: "searchResults", Operator: OperatorGT, Value: 10})
	assert.False(t, EvaluateAll(conditions, context))

	assert.True(t, EvaluateAll(nil, context))
	assert.True(t, EvaluateAll([]Condition{}, map[string]any{}))
}
