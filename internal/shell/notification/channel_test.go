package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
	"export-service/internal/shell/storage"
)

type recordingSender struct {
	keys    []string
	values  [][]byte
	headers []map[string]string
	err     error
}

func (s *recordingSender) SendMessage(key string, value []byte, headers map[string]string) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	s.values = append(s.values, value)
	s.headers = append(s.headers, headers)
	return nil
}

type recordingChannel struct {
	published []domain.Notification
	err       error
}

func (c *recordingChannel) Publish(ctx context.Context, n domain.Notification) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, n)
	return nil
}

func TestStoreChannelKeepsLatestState(t *testing.T) {
	repository := storage.NewMemoryNotificationRepository()
	channel := NewStoreChannel(repository)

	notification := domain.NewNotification(domain.Principal{OrgID: "1", Username: "u"}, "Catalog.Product").WithJobID("job-1")

	for _, state := range []domain.Notification{
		notification,
		notification.WithRunning(),
		notification.WithRunning().WithCompleted("job-1.csv"),
	} {
		if err := channel.Publish(context.Background(), state); err != nil {
			t.Fatalf("Publish() unexpected error: %v", err)
		}
	}

	loaded, err := repository.FindByID(notification.ID)
	if err != nil {
		t.Fatalf("FindByID() unexpected error: %v", err)
	}
	if loaded.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want %q", loaded.Status, domain.StatusCompleted)
	}
	if loaded.FileName != "job-1.csv" {
		t.Errorf("FileName = %q, want %q", loaded.FileName, "job-1.csv")
	}
}

func TestKafkaChannelKeysByNotificationID(t *testing.T) {
	sender := &recordingSender{}
	channel := NewKafkaChannel(sender)

	notification := domain.NewNotification(domain.Principal{OrgID: "12345", Username: "jdoe"}, "Catalog.Product").WithJobID("job-2")

	if err := channel.Publish(context.Background(), notification); err != nil {
		t.Fatalf("Publish() unexpected error: %v", err)
	}
	if err := channel.Publish(context.Background(), notification.WithRunning()); err != nil {
		t.Fatalf("Publish() unexpected error: %v", err)
	}

	if len(sender.keys) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.keys))
	}
	for i, key := range sender.keys {
		if key != notification.ID {
			t.Errorf("message %d keyed by %q, want notification id %q", i, key, notification.ID)
		}
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(sender.values[1], &decoded); err != nil {
		t.Fatalf("message payload is not JSON: %v", err)
	}
	if decoded["event_type"] != "export-running" {
		t.Errorf("event_type = %v, want %q", decoded["event_type"], "export-running")
	}
	if sender.headers[1]["org_id"] != "12345" {
		t.Errorf("org_id header = %q, want %q", sender.headers[1]["org_id"], "12345")
	}
}

func TestKafkaChannelPropagatesSendErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("broker down")}
	channel := NewKafkaChannel(sender)

	notification := domain.NewNotification(domain.Principal{OrgID: "1", Username: "u"}, "Host")
	if err := channel.Publish(context.Background(), notification); err == nil {
		t.Error("Publish() = nil, want send error")
	}
}

func TestFanoutChannelPublishesInOrder(t *testing.T) {
	first := &recordingChannel{}
	second := &recordingChannel{}
	channel := NewFanoutChannel(first, second)

	notification := domain.NewNotification(domain.Principal{OrgID: "1", Username: "u"}, "Host")
	if err := channel.Publish(context.Background(), notification); err != nil {
		t.Fatalf("Publish() unexpected error: %v", err)
	}

	if len(first.published) != 1 || len(second.published) != 1 {
		t.Errorf("fanout reached %d/%d targets, want 1/1", len(first.published), len(second.published))
	}
}

func TestFanoutChannelStopsOnFirstError(t *testing.T) {
	first := &recordingChannel{err: errors.New("store down")}
	second := &recordingChannel{}
	channel := NewFanoutChannel(first, second)

	notification := domain.NewNotification(domain.Principal{OrgID: "1", Username: "u"}, "Host")
	if err := channel.Publish(context.Background(), notification); err == nil {
		t.Error("Publish() = nil, want first target's error")
	}
	if len(second.published) != 0 {
		t.Errorf("second target received %d notifications after first failed, want 0", len(second.published))
	}
}

func TestNullChannelAcceptsEverything(t *testing.T) {
	var channel ports.NotificationChannel = NullChannel{}
	notification := domain.NewNotification(domain.Principal{OrgID: "1", Username: "u"}, "Host")
	if err := channel.Publish(context.Background(), notification); err != nil {
		t.Errorf("Publish() unexpected error: %v", err)
	}
}
