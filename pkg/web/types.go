package web

// IngestEventRequest is the body of POST /events.
type IngestEventRequest struct {
	Type      string         `json:"type"       validate:"required"`
	SubjectID string         `json:"subject_id" validate:"required"`
	Data      map[string]any `json:"data"`
	Source    string         `json:"source"`
}

// IngestEventResponse acknowledges an accepted event.
type IngestEventResponse struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}

// TriggerWorkflowRequest is the body of POST /workflows/:id/trigger.
type TriggerWorkflowRequest struct {
	SubjectID string         `json:"subject_id" validate:"required"`
	Data      map[string]any `json:"data"`
}
