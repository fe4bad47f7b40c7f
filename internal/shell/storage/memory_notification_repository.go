package storage

import (
	"sync"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

// MemoryNotificationRepository keeps the latest state of each notification
// in process memory. Suitable for tests and single-instance deployments.
type MemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]domain.Notification
}

var _ ports.NotificationRepository = (*MemoryNotificationRepository)(nil)

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{
		notifications: make(map[string]domain.Notification),
	}
}

func (r *MemoryNotificationRepository) Save(notification domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications[notification.ID] = notification
	return nil
}

func (r *MemoryNotificationRepository) FindByID(id string) (domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notification, exists := r.notifications[id]
	if !exists {
		return domain.Notification{}, domain.ErrNotificationNotFound
	}
	return notification, nil
}
