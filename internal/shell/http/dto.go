package http

import (
	"time"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

// TypeResponse is the API model for one registered export type.
type TypeResponse struct {
	Name               string `json:"name"`
	RequiredPermission string `json:"required_permission"`
}

func ToTypeResponseList(types []ports.ExportedType) []TypeResponse {
	responses := make([]TypeResponse, len(types))
	for i, t := range types {
		responses[i] = TypeResponse{
			Name:               t.Name(),
			RequiredPermission: t.RequiredPermission(),
		}
	}
	return responses
}

// ProviderResponse is the API model for one export provider.
type ProviderResponse struct {
	Name          string `json:"name"`
	ContentType   string `json:"content_type"`
	FileExtension string `json:"file_extension"`
}

func ToProviderResponseList(providers []ports.ExportProvider) []ProviderResponse {
	responses := make([]ProviderResponse, len(providers))
	for i, p := range providers {
		responses[i] = ProviderResponse{
			Name:          p.Name(),
			ContentType:   p.ContentType(),
			FileExtension: p.FileExtension(),
		}
	}
	return responses
}

// PreviewResponse is the API model for a data preview page.
type PreviewResponse struct {
	TotalCount int64           `json:"total_count"`
	Results    []domain.Record `json:"results"`
}

func ToPreviewResponse(preview domain.DataPreview) PreviewResponse {
	results := preview.Results
	if results == nil {
		results = []domain.Record{}
	}
	return PreviewResponse{
		TotalCount: preview.TotalCount,
		Results:    results,
	}
}

// NotificationResponse is the API model for an export notification.
// It excludes org_id and username which belong to the identity, not the API.
type NotificationResponse struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	FileName    string    `json:"file_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToNotificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		JobID:       n.JobID,
		Title:       n.Title,
		Description: n.Description,
		Status:      string(n.Status),
		FileName:    n.FileName,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}
