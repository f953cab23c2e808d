package workflow

import (
	"time"

	"github.com/windward-io/windward/pkg/events"
	"github.com/windward-io/windward/pkg/models"
)

func stepRef(id string) *string {
	return &id
}

// Builtins returns the shipped travel-marketing workflow definitions. The
// relative condition cutoffs (24h alert frequency, 30/90 day inactivity) are
// anchored to the given instant, in unix milliseconds to match the profile
// attribute encoding.
func Builtins(now time.Time) []*models.Workflow {
	return []*models.Workflow{
		welcomeSeries(),
		priceDropAlert(now),
		bookingFollowUp(),
		reEngagement(now),
		abandonedSearch(),
	}
}

func welcomeSeries() *models.Workflow {
	return &models.Workflow{
		ID:          "welcome-series-v1",
		Name:        "Welcome Series for New Leads",
		Description: "A 3-email welcome series for new subscribers",
		Status:      models.WorkflowStatusActive,
		Trigger: models.Trigger{
			ID:    "new-user-signup",
			Name:  "New User Signup",
			Event: events.EventUserCreated,
			Conditions: []models.Condition{
				{Field: "source", Operator: models.OperatorNotEquals, Value: "admin"},
			},
			Workflows: []string{"welcome-series-v1"},
		},
		Steps: []*models.WorkflowStep{
			{
				ID:         "welcome-email-1",
				Kind:       models.StepKindEmail,
				Name:       "Welcome Email (Immediate)",
				Email:      &models.EmailStepConfig{TemplateID: "welcome-lead"},
				NextStepID: stepRef("wait-2-days"),
			},
			{
				ID:         "wait-2-days",
				Kind:       models.StepKindWait,
				Name:       "Wait 2 Days",
				Wait:       &models.WaitStepConfig{DelayMinutes: 2880},
				NextStepID: stepRef("check-engagement"),
			},
			{
				ID:   "check-engagement",
				Kind: models.StepKindCondition,
				Name: "Check Email Engagement",
				Condition: &models.ConditionStepConfig{
					Conditions: []models.Condition{
						{Field: "lastEmailOpened", Operator: models.OperatorGTE, Value: 1},
					},
				},
				NextStepID:      stepRef("engaged-email"),
				AlternateStepID: stepRef("non-engaged-email"),
			},
			{
				ID:         "engaged-email",
				Kind:       models.StepKindEmail,
				Name:       "Getting Started Guide (Engaged)",
				Email:      &models.EmailStepConfig{TemplateID: "getting-started-engaged"},
				NextStepID: stepRef("wait-5-days"),
			},
			{
				ID:         "non-engaged-email",
				Kind:       models.StepKindEmail,
				Name:       "Special Offer (Non-Engaged)",
				Email:      &models.EmailStepConfig{TemplateID: "special-offer-reengagement"},
				NextStepID: stepRef("wait-5-days"),
			},
			{
				ID:         "wait-5-days",
				Kind:       models.StepKindWait,
				Name:       "Wait 5 Days",
				Wait:       &models.WaitStepConfig{DelayMinutes: 7200},
				NextStepID: stepRef("final-email"),
			},
			{
				ID:    "final-email",
				Kind:  models.StepKindEmail,
				Name:  "First Deal Recommendations",
				Email: &models.EmailStepConfig{TemplateID: "first-deal-recommendations"},
			},
		},
	}
}

func priceDropAlert(now time.Time) *models.Workflow {
	alertCutoff := now.Add(-24 * time.Hour).UnixMilli()

	return &models.Workflow{
		ID:          "price-drop-alert-v1",
		Name:        "Price Drop Alerts",
		Description: "Automated price drop notifications for saved routes",
		Status:      models.WorkflowStatusActive,
		Trigger: models.Trigger{
			ID:    "price-drop-detected",
			Name:  "Price Drop Detected",
			Event: events.EventPriceDropped,
			Conditions: []models.Condition{
				{Field: "percentageDiscount", Operator: models.OperatorGTE, Value: 15},
			},
			Workflows: []string{"price-drop-alert-v1"},
		},
		Steps: []*models.WorkflowStep{
			{
				ID:   "check-alert-frequency",
				Kind: models.StepKindCondition,
				Name: "Check Alert Frequency",
				Condition: &models.ConditionStepConfig{
					Conditions: []models.Condition{
						{Field: "lastAlertSent", Operator: models.OperatorLT, Value: alertCutoff},
					},
				},
				NextStepID:      stepRef("send-price-alert"),
				AlternateStepID: stepRef("log-skipped"),
			},
			{
				ID:         "send-price-alert",
				Kind:       models.StepKindEmail,
				Name:       "Send Price Drop Alert",
				Email:      &models.EmailStepConfig{TemplateID: "price-drop-alert"},
				NextStepID: stepRef("update-alert-timestamp"),
			},
			{
				ID:        "update-alert-timestamp",
				Kind:      models.StepKindTagUpdate,
				Name:      "Update Last Alert Timestamp",
				TagUpdate: &models.TagUpdateStepConfig{Tags: []string{"lastAlertSent:{{now_ms}}"}},
			},
			{
				ID:   "log-skipped",
				Kind: models.StepKindWebhook,
				Name: "Log Skipped Alert",
				Webhook: &models.WebhookStepConfig{
					URL: "http://localhost:9090/api/automation/log",
					CustomData: map[string]any{
						"action": "alert_skipped",
						"reason": "frequency_limit",
					},
				},
			},
		},
	}
}

func bookingFollowUp() *models.Workflow {
	return &models.Workflow{
		ID:          "booking-followup-v1",
		Name:        "Booking Follow-up Series",
		Description: "Post-booking communication workflow",
		Status:      models.WorkflowStatusActive,
		Trigger: models.Trigger{
			ID:        "booking-confirmed",
			Name:      "Booking Confirmed",
			Event:     events.EventBookingConfirmed,
			Workflows: []string{"booking-followup-v1"},
		},
		Steps: []*models.WorkflowStep{
			{
				ID:         "immediate-confirmation",
				Kind:       models.StepKindEmail,
				Name:       "Booking Confirmation Email",
				Email:      &models.EmailStepConfig{TemplateID: "booking-confirmation"},
				NextStepID: stepRef("wait-1-week"),
			},
			{
				ID:         "wait-1-week",
				Kind:       models.StepKindWait,
				Name:       "Wait 1 Week",
				Wait:       &models.WaitStepConfig{DelayMinutes: 10080},
				NextStepID: stepRef("check-travel-date"),
			},
			{
				ID:   "check-travel-date",
				Kind: models.StepKindCondition,
				Name: "Check Days Until Travel",
				Condition: &models.ConditionStepConfig{
					Conditions: []models.Condition{
						{Field: "daysUntilTravel", Operator: models.OperatorGTE, Value: 14},
					},
				},
				NextStepID:      stepRef("early-travel-tips"),
				AlternateStepID: stepRef("last-minute-tips"),
			},
			{
				ID:         "early-travel-tips",
				Kind:       models.StepKindEmail,
				Name:       "Travel Preparation Guide",
				Email:      &models.EmailStepConfig{TemplateID: "booking-follow-up"},
				NextStepID: stepRef("wait-for-travel"),
			},
			{
				ID:         "last-minute-tips",
				Kind:       models.StepKindEmail,
				Name:       "Last Minute Travel Tips",
				Email:      &models.EmailStepConfig{TemplateID: "last-minute-travel-tips"},
				NextStepID: stepRef("wait-for-travel"),
			},
			{
				ID:         "wait-for-travel",
				Kind:       models.StepKindWait,
				Name:       "Wait Until After Travel",
				Wait:       &models.WaitStepConfig{DelayMinutes: 10080},
				NextStepID: stepRef("post-travel-survey"),
			},
			{
				ID:    "post-travel-survey",
				Kind:  models.StepKindEmail,
				Name:  "Post-Travel Survey",
				Email: &models.EmailStepConfig{TemplateID: "post-travel-survey"},
			},
		},
	}
}

func reEngagement(now time.Time) *models.Workflow {
	inactiveCutoff := now.Add(-30 * 24 * time.Hour).UnixMilli()
	bookingCutoff := now.Add(-90 * 24 * time.Hour).UnixMilli()
	recentCutoff := now.Add(-3 * 24 * time.Hour).UnixMilli()

	return &models.Workflow{
		ID:          "re-engagement-v1",
		Name:        "Re-engagement Campaign",
		Description: "Win back inactive subscribers",
		Status:      models.WorkflowStatusActive,
		Trigger: models.Trigger{
			ID:    "user-inactive",
			Name:  "User Inactive 30 Days",
			Event: events.EventUserInactive,
			Conditions: []models.Condition{
				{Field: "lastEmailOpened", Operator: models.OperatorLT, Value: inactiveCutoff},
				{Field: "lastBooking", Operator: models.OperatorLT, Value: bookingCutoff},
			},
			Workflows: []string{"re-engagement-v1"},
		},
		Steps: []*models.WorkflowStep{
			{
				ID:         "miss-you-email",
				Kind:       models.StepKindEmail,
				Name:       "We Miss You Email",
				Email:      &models.EmailStepConfig{TemplateID: "miss-you-email"},
				NextStepID: stepRef("wait-3-days"),
			},
			{
				ID:         "wait-3-days",
				Kind:       models.StepKindWait,
				Name:       "Wait 3 Days",
				Wait:       &models.WaitStepConfig{DelayMinutes: 4320},
				NextStepID: stepRef("check-engagement"),
			},
			{
				// A re-engaged subscriber exits here; only the still-silent
				// ones get the offer.
				ID:   "check-engagement",
				Kind: models.StepKindCondition,
				Name: "Check If User Engaged",
				Condition: &models.ConditionStepConfig{
					Conditions: []models.Condition{
						{Field: "lastEmailOpened", Operator: models.OperatorGTE, Value: recentCutoff},
					},
				},
				AlternateStepID: stepRef("special-offer-email"),
			},
			{
				ID:         "special-offer-email",
				Kind:       models.StepKindEmail,
				Name:       "Special Offer Email",
				Email:      &models.EmailStepConfig{TemplateID: "special-discount-offer"},
				NextStepID: stepRef("wait-1-week-final"),
			},
			{
				ID:         "wait-1-week-final",
				Kind:       models.StepKindWait,
				Name:       "Wait 1 Week",
				Wait:       &models.WaitStepConfig{DelayMinutes: 10080},
				NextStepID: stepRef("final-chance"),
			},
			{
				ID:    "final-chance",
				Kind:  models.StepKindEmail,
				Name:  "Final Chance Email",
				Email: &models.EmailStepConfig{TemplateID: "final-chance-reengagement"},
			},
		},
	}
}

func abandonedSearch() *models.Workflow {
	return &models.Workflow{
		ID:          "abandoned-search-v1",
		Name:        "Abandoned Search Recovery",
		Description: "Follow up on abandoned flight searches",
		Status:      models.WorkflowStatusActive,
		Trigger: models.Trigger{
			ID:    "search-abandoned",
			Name:  "Flight Search Abandoned",
			Event: events.EventSearchAbandoned,
			Conditions: []models.Condition{
				{Field: "searchResults", Operator: models.OperatorGT, Value: 0},
				{Field: "timeOnResults", Operator: models.OperatorGT, Value: 30},
			},
			Workflows: []string{"abandoned-search-v1"},
		},
		Steps: []*models.WorkflowStep{
			{
				ID:         "wait-2-hours",
				Kind:       models.StepKindWait,
				Name:       "Wait 2 Hours",
				Wait:       &models.WaitStepConfig{DelayMinutes: 120},
				NextStepID: stepRef("check-booking-status"),
			},
			{
				ID:   "check-booking-status",
				Kind: models.StepKindCondition,
				Name: "Check If User Booked",
				Condition: &models.ConditionStepConfig{
					Conditions: []models.Condition{
						{Field: "hasBooked", Operator: models.OperatorEquals, Value: false},
					},
				},
				NextStepID:      stepRef("send-search-reminder"),
				AlternateStepID: stepRef("end-workflow"),
			},
			{
				ID:         "send-search-reminder",
				Kind:       models.StepKindEmail,
				Name:       "Search Reminder Email",
				Email:      &models.EmailStepConfig{TemplateID: "abandoned-search-reminder"},
				NextStepID: stepRef("wait-24-hours"),
			},
			{
				ID:         "wait-24-hours",
				Kind:       models.StepKindWait,
				Name:       "Wait 24 Hours",
				Wait:       &models.WaitStepConfig{DelayMinutes: 1440},
				NextStepID: stepRef("price-alert-offer"),
			},
			{
				ID:    "price-alert-offer",
				Kind:  models.StepKindEmail,
				Name:  "Price Alert Offer",
				Email: &models.EmailStepConfig{TemplateID: "price-alert-signup-offer"},
			},
			{
				ID:   "end-workflow",
				Kind: models.StepKindWebhook,
				Name: "End Workflow",
				Webhook: &models.WebhookStepConfig{
					URL: "http://localhost:9090/api/automation/end",
					CustomData: map[string]any{
						"reason": "user_booked",
					},
				},
			},
		},
	}
}
