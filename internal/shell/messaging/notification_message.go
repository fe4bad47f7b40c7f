package messaging

import (
	"encoding/json"
	"time"

	"export-service/internal/core/domain"
)

// NotificationMessage is the platform notification event envelope, following
// the notifications-backend message format.
type NotificationMessage struct {
	Version     string                 `json:"version"`
	Bundle      string                 `json:"bundle"`
	Application string                 `json:"application"`
	EventType   string                 `json:"event_type"`
	Timestamp   string                 `json:"timestamp"` // RFC3339 format
	OrgID       string                 `json:"org_id"`
	Context     map[string]interface{} `json:"context"`
	Events      []interface{}          `json:"events"`
	Recipients  []interface{}          `json:"recipients"`
}

var eventTypes = map[domain.JobStatus]string{
	domain.StatusQueued:    "export-queued",
	domain.StatusRunning:   "export-running",
	domain.StatusCompleted: "export-completed",
	domain.StatusFailed:    "export-failed",
	domain.StatusCancelled: "export-cancelled",
}

// NewExportStatusMessage builds the platform event for one notification
// status transition.
func NewExportStatusMessage(n domain.Notification) *NotificationMessage {
	context := map[string]interface{}{
		"notification_id": n.ID,
		"job_id":          n.JobID,
		"status":          string(n.Status),
		"description":     n.Description,
	}
	if n.FileName != "" {
		context["file_name"] = n.FileName
	}

	eventType, ok := eventTypes[n.Status]
	if !ok {
		eventType = "export-updated"
	}

	return &NotificationMessage{
		Version:     "v1.2.0",
		Bundle:      "platform",
		Application: "export-service",
		EventType:   eventType,
		Timestamp:   n.UpdatedAt.UTC().Format(time.RFC3339),
		OrgID:       n.OrgID,
		Context:     context,
		Events:      []interface{}{},
		Recipients:  []interface{}{n.Username},
	}
}

// ToJSON converts the notification message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
