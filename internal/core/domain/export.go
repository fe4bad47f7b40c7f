package domain

import (
	"encoding/json"
)

type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the status is a final job state.
// A job in a terminal state never transitions again.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Record is a single exported row. Keys are column names.
type Record map[string]interface{}

// ExportRequest describes one export: which registered type to export,
// an opaque query understood by that type's data source, and the output
// provider (format) to write with. Consumed once by resolution + job creation.
type ExportRequest struct {
	ExportTypeName string          `json:"export_type_name"`
	Query          json.RawMessage `json:"query,omitempty"`
	Provider       string          `json:"provider,omitempty"`
}

// DataPreview is the synchronous result of a preview fetch: the best-known
// total for the query plus a single page of items.
type DataPreview struct {
	TotalCount int64    `json:"total_count"`
	Results    []Record `json:"results"`
}

type Principal struct {
	OrgID    string `json:"org_id"`
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}
