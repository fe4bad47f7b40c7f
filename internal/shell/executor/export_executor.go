package executor

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
	"export-service/internal/core/usecases"
)

// ExportJobExecutor runs one export job end to end: drain the data source
// page by page through the provider's writer into staged file storage,
// checking the cancellation signal between pages, and publish the file only
// on success. Every status transition is emitted on the notification channel
// under the notification's stable id.
type ExportJobExecutor struct {
	store   ports.FileStore
	channel ports.NotificationChannel
}

var _ usecases.ExportExecutor = (*ExportJobExecutor)(nil)

func NewExportJobExecutor(store ports.FileStore, channel ports.NotificationChannel) *ExportJobExecutor {
	return &ExportJobExecutor{
		store:   store,
		channel: channel,
	}
}

func (e *ExportJobExecutor) Execute(ctx context.Context, jobID string, exportedType ports.ExportedType, provider ports.ExportProvider, query json.RawMessage, notification domain.Notification) {
	log.Printf("Executing export job %s (type: %s, provider: %s)", jobID, exportedType.Name(), provider.Name())

	notification = notification.WithRunning()
	e.publish(notification)

	if ctx.Err() != nil {
		e.cancelled(jobID, notification)
		return
	}

	source, err := exportedType.NewDataSource(query)
	if err != nil {
		e.failed(jobID, notification, err)
		return
	}

	fileName := jobID + provider.FileExtension()
	staged, err := e.store.Create(fileName)
	if err != nil {
		e.failed(jobID, notification, err)
		return
	}

	writer, err := provider.NewWriter(staged)
	if err != nil {
		e.abort(staged)
		e.failed(jobID, notification, err)
		return
	}

	for {
		// Cancellation is cooperative: checked at every page boundary,
		// never mid-fetch or mid-write.
		if ctx.Err() != nil {
			e.abort(staged)
			e.cancelled(jobID, notification)
			return
		}

		page, err := source.FetchPage(ctx)
		if err != nil {
			e.abort(staged)
			if errors.Is(err, context.Canceled) {
				e.cancelled(jobID, notification)
				return
			}
			e.failed(jobID, notification, err)
			return
		}
		if len(page) == 0 {
			break
		}

		for _, record := range page {
			if err := writer.WriteRecord(record); err != nil {
				e.abort(staged)
				e.failed(jobID, notification, err)
				return
			}
		}
	}

	if err := writer.Flush(); err != nil {
		e.abort(staged)
		e.failed(jobID, notification, err)
		return
	}

	if ctx.Err() != nil {
		e.abort(staged)
		e.cancelled(jobID, notification)
		return
	}

	if err := staged.Commit(); err != nil {
		e.failed(jobID, notification, err)
		return
	}

	log.Printf("Export job %s completed, published %s", jobID, fileName)
	JobsTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
	e.publish(notification.WithCompleted(fileName))
}

func (e *ExportJobExecutor) failed(jobID string, notification domain.Notification, err error) {
	log.Printf("Export job %s failed: %v", jobID, err)
	JobsTotal.WithLabelValues(string(domain.StatusFailed)).Inc()
	e.publish(notification.WithFailed(err.Error()))
}

func (e *ExportJobExecutor) cancelled(jobID string, notification domain.Notification) {
	log.Printf("Export job %s cancelled, partial output discarded", jobID)
	JobsTotal.WithLabelValues(string(domain.StatusCancelled)).Inc()
	e.publish(notification.WithCancelled())
}

func (e *ExportJobExecutor) abort(staged ports.FileWriter) {
	if err := staged.Abort(); err != nil {
		log.Printf("Failed to discard staged export output: %v", err)
	}
}

// publish uses a fresh context: the job context may already be cancelled and
// the terminal update must still go out.
func (e *ExportJobExecutor) publish(n domain.Notification) {
	if err := e.channel.Publish(context.Background(), n); err != nil {
		log.Printf("Failed to publish notification %s (job %s): %v", n.ID, n.JobID, err)
	}
}
