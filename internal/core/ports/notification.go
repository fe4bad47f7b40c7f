package ports

import (
	"context"

	"export-service/internal/core/domain"
)

// NotificationChannel delivers asynchronous status updates to the requesting
// user. Updates for a single job id must be observable in transition order;
// the orchestrator only issues updates, the channel owns storage/delivery.
type NotificationChannel interface {
	Publish(ctx context.Context, notification domain.Notification) error
}

// NotificationRepository persists the latest state of each notification,
// keyed by its stable id.
type NotificationRepository interface {
	Save(notification domain.Notification) error

	// FindByID returns the current state, or domain.ErrNotificationNotFound.
	FindByID(id string) (domain.Notification, error)
}
