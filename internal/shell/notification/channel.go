package notification

import (
	"context"
	"fmt"
	"log"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
	"export-service/internal/shell/messaging"
)

// StoreChannel persists each published notification state, keeping the latest
// state of every notification queryable by id.
type StoreChannel struct {
	repository ports.NotificationRepository
}

var _ ports.NotificationChannel = (*StoreChannel)(nil)

func NewStoreChannel(repository ports.NotificationRepository) *StoreChannel {
	return &StoreChannel{repository: repository}
}

func (c *StoreChannel) Publish(ctx context.Context, n domain.Notification) error {
	if err := c.repository.Save(n); err != nil {
		return fmt.Errorf("failed to store notification %s: %w", n.ID, err)
	}
	return nil
}

// MessageSender is the producer surface KafkaChannel needs.
type MessageSender interface {
	SendMessage(key string, value []byte, headers map[string]string) error
}

// KafkaChannel emits each notification transition as a platform event. The
// notification id is the message key, so transitions of one export stay
// ordered within their partition.
type KafkaChannel struct {
	sender MessageSender
}

var _ ports.NotificationChannel = (*KafkaChannel)(nil)

func NewKafkaChannel(sender MessageSender) *KafkaChannel {
	return &KafkaChannel{sender: sender}
}

func (c *KafkaChannel) Publish(ctx context.Context, n domain.Notification) error {
	message := messaging.NewExportStatusMessage(n)
	value, err := message.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode notification %s: %w", n.ID, err)
	}

	headers := map[string]string{
		"event_type": message.EventType,
		"org_id":     n.OrgID,
	}
	if err := c.sender.SendMessage(n.ID, value, headers); err != nil {
		return fmt.Errorf("failed to publish notification %s: %w", n.ID, err)
	}
	return nil
}

// FanoutChannel publishes to each target in order. Targets are tried in the
// order given; the first error stops the fanout so a failed store never has
// a successful external event ahead of it.
type FanoutChannel struct {
	targets []ports.NotificationChannel
}

var _ ports.NotificationChannel = (*FanoutChannel)(nil)

func NewFanoutChannel(targets ...ports.NotificationChannel) *FanoutChannel {
	return &FanoutChannel{targets: targets}
}

func (c *FanoutChannel) Publish(ctx context.Context, n domain.Notification) error {
	for _, target := range c.targets {
		if err := target.Publish(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// NullChannel drops every notification, logging at debug granularity. Used
// when no notification backend is configured.
type NullChannel struct{}

var _ ports.NotificationChannel = NullChannel{}

func (NullChannel) Publish(ctx context.Context, n domain.Notification) error {
	log.Printf("Notification channel disabled, dropping %s update for %s", n.Status, n.ID)
	return nil
}
