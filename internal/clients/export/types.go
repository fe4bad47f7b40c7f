package export

import (
	"encoding/json"
	"time"
)

// ExportType describes one exportable entity type as served by the API.
type ExportType struct {
	Name               string `json:"name"`
	RequiredPermission string `json:"required_permission"`
}

// Provider describes one export output format.
type Provider struct {
	Name          string `json:"name"`
	ContentType   string `json:"content_type"`
	FileExtension string `json:"file_extension"`
}

// PreviewRequest asks for the first page of an export.
type PreviewRequest struct {
	Type  string          `json:"type"`
	Query json.RawMessage `json:"query,omitempty"`
}

// Preview is one page of data plus the total count.
type Preview struct {
	TotalCount int64                    `json:"total_count"`
	Results    []map[string]interface{} `json:"results"`
}

// RunRequest starts a background export job.
type RunRequest struct {
	Type     string          `json:"type"`
	Provider string          `json:"provider"`
	Query    json.RawMessage `json:"query,omitempty"`
}

// Notification is the tracked state of one export job.
type Notification struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	FileName    string    `json:"file_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CancelResponse acknowledges a cancellation request.
type CancelResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// APIError is one JSON:API error object returned by the service.
type APIError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ErrorResponse is the JSON:API error envelope.
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}
