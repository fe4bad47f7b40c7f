package ports

import (
	"context"

	"export-service/internal/core/domain"
)

// ExportService is the orchestration surface used by the HTTP handlers.
type ExportService interface {
	// KnownTypes returns every registered export type in insertion order.
	KnownTypes() []ExportedType

	// Providers returns the available export providers in registration order.
	Providers() []ExportProvider

	// PreviewData authorizes the request and fetches a single page plus the
	// best-known total. No job is created.
	PreviewData(ctx context.Context, principal domain.Principal, req domain.ExportRequest) (domain.DataPreview, error)

	// Run authorizes the request, creates its notification, enqueues the
	// export job, and returns the notification with the job id attached.
	Run(ctx context.Context, principal domain.Principal, req domain.ExportRequest) (domain.Notification, error)

	// Cancel best-effort cancels the job. Unknown or terminal job ids are a
	// silent no-op, never an error.
	Cancel(ctx context.Context, jobID string)
}
