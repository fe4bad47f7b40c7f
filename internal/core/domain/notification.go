package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notification tracks one export job for the requesting user. Its ID is
// stable across every status transition of that job; only the status,
// description, file name, and updated timestamp change.
type Notification struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id,omitempty"`
	OrgID       string    `json:"org_id"`
	Username    string    `json:"username"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	FileName    string    `json:"file_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExportTitle derives a notification title from an export type name:
// the last "."-delimited segment, or the whole name when there is none.
// "Catalog.Product" becomes "Product export".
func ExportTitle(exportTypeName string) string {
	name := exportTypeName
	if idx := strings.LastIndex(exportTypeName, "."); idx >= 0 && idx < len(exportTypeName)-1 {
		name = exportTypeName[idx+1:]
	}
	return name + " export"
}

func NewNotification(principal Principal, exportTypeName string) Notification {
	now := time.Now().UTC()
	return Notification{
		ID:          uuid.New().String(),
		OrgID:       principal.OrgID,
		Username:    principal.Username,
		Title:       ExportTitle(exportTypeName),
		Description: "Export has been accepted",
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (n Notification) WithJobID(jobID string) Notification {
	n.JobID = jobID
	return n
}

func (n Notification) WithRunning() Notification {
	n.Status = StatusRunning
	n.Description = "Export is running"
	n.UpdatedAt = time.Now().UTC()
	return n
}

func (n Notification) WithCompleted(fileName string) Notification {
	n.Status = StatusCompleted
	n.Description = "Export completed successfully"
	n.FileName = fileName
	n.UpdatedAt = time.Now().UTC()
	return n
}

func (n Notification) WithFailed(errorMessage string) Notification {
	n.Status = StatusFailed
	n.Description = errorMessage
	n.FileName = ""
	n.UpdatedAt = time.Now().UTC()
	return n
}

func (n Notification) WithCancelled() Notification {
	n.Status = StatusCancelled
	n.Description = "Export was cancelled"
	n.FileName = ""
	n.UpdatedAt = time.Now().UTC()
	return n
}
