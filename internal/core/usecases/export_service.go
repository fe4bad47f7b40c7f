package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

// ExportExecutor runs the body of one export job: drain the data source
// through the provider into file storage, emitting notification updates.
// Implemented by the shell; the service only dispatches to it.
type ExportExecutor interface {
	Execute(ctx context.Context, jobID string, exportedType ports.ExportedType, provider ports.ExportProvider, query json.RawMessage, notification domain.Notification)
}

// ExportService orchestrates export requests: resolve the type, authorize,
// and either fetch a preview page synchronously or hand the run off to the
// job queue.
type ExportService struct {
	registry ports.TypeRegistry
	queue    ports.JobQueue
	channel  ports.NotificationChannel
	executor ExportExecutor

	mu            sync.RWMutex
	providers     map[string]ports.ExportProvider
	providerOrder []string
}

var _ ports.ExportService = (*ExportService)(nil)

func NewExportService(registry ports.TypeRegistry, queue ports.JobQueue, channel ports.NotificationChannel, executor ExportExecutor) *ExportService {
	return &ExportService{
		registry:  registry,
		queue:     queue,
		channel:   channel,
		executor:  executor,
		providers: make(map[string]ports.ExportProvider),
	}
}

// RegisterProvider adds or replaces an export provider by name.
func (s *ExportService) RegisterProvider(p ports.ExportProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := p.Name()
	if _, exists := s.providers[name]; !exists {
		s.providerOrder = append(s.providerOrder, name)
	}
	s.providers[name] = p
}

func (s *ExportService) KnownTypes() []ports.ExportedType {
	return s.registry.List()
}

func (s *ExportService) Providers() []ports.ExportProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	providers := make([]ports.ExportProvider, 0, len(s.providerOrder))
	for _, name := range s.providerOrder {
		providers = append(providers, s.providers[name])
	}
	return providers
}

func (s *ExportService) provider(name string) (ports.ExportProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.providers[name]
	if !exists {
		return nil, domain.ErrUnknownProvider
	}
	return p, nil
}

// authorize resolves the requested type and evaluates its policy. It runs
// before any DataSource is constructed or job enqueued; on denial nothing
// else happens and no reason detail is surfaced to the caller.
func (s *ExportService) authorize(ctx context.Context, principal domain.Principal, req domain.ExportRequest) (ports.ExportedType, error) {
	exportedType, policy, err := s.registry.Resolve(req.ExportTypeName)
	if err != nil {
		return nil, err
	}

	// No policy registered for the type means deny by default.
	if policy == nil {
		log.Printf("Authorization denied for export type %s: no policy registered", req.ExportTypeName)
		return nil, domain.ErrAuthorizationDenied
	}

	if err := policy(ctx, principal, req.Query); err != nil {
		log.Printf("Authorization denied for user %s on export type %s", principal.Username, req.ExportTypeName)
		return nil, domain.ErrAuthorizationDenied
	}

	return exportedType, nil
}

func (s *ExportService) PreviewData(ctx context.Context, principal domain.Principal, req domain.ExportRequest) (domain.DataPreview, error) {
	exportedType, err := s.authorize(ctx, principal, req)
	if err != nil {
		return domain.DataPreview{}, err
	}

	source, err := exportedType.NewDataSource(req.Query)
	if err != nil {
		return domain.DataPreview{}, sourceError(err)
	}

	page, err := source.FetchPage(ctx)
	if err != nil {
		return domain.DataPreview{}, fmt.Errorf("%w: %v", domain.ErrDataSource, err)
	}

	return domain.DataPreview{
		TotalCount: source.TotalCount(),
		Results:    page,
	}, nil
}

func (s *ExportService) Run(ctx context.Context, principal domain.Principal, req domain.ExportRequest) (domain.Notification, error) {
	exportedType, err := s.authorize(ctx, principal, req)
	if err != nil {
		return domain.Notification{}, err
	}

	provider, err := s.provider(req.Provider)
	if err != nil {
		return domain.Notification{}, err
	}

	// Construct and discard a source now so a malformed query rejects the
	// request instead of failing the job after acceptance.
	if _, err := exportedType.NewDataSource(req.Query); err != nil {
		return domain.Notification{}, sourceError(err)
	}

	notification := domain.NewNotification(principal, req.ExportTypeName)

	job := ports.QueuedJob{
		// Runs inside Enqueue, before any worker sees the job, so the
		// queued update is ordered before the running one.
		Accepted: func(jobID string) {
			s.publish(ctx, notification.WithJobID(jobID))
		},
		Run: func(jobCtx context.Context, jobID string) {
			s.executor.Execute(jobCtx, jobID, exportedType, provider, req.Query, notification.WithJobID(jobID))
		},
		Discarded: func(jobID string) {
			s.publish(context.Background(), notification.WithJobID(jobID).WithCancelled())
		},
	}

	jobID, err := s.queue.Enqueue(job)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("failed to enqueue export job: %w", err)
	}

	log.Printf("Export job %s enqueued for type %s (user: %s)", jobID, req.ExportTypeName, principal.Username)
	return notification.WithJobID(jobID), nil
}

func (s *ExportService) Cancel(ctx context.Context, jobID string) {
	log.Printf("Cancel requested for export job %s", jobID)
	s.queue.Cancel(jobID)
}

// sourceError keeps query-validation failures as the client-error sentinel
// they already carry and treats everything else as a backend failure.
func sourceError(err error) error {
	if errors.Is(err, domain.ErrInvalidQuery) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrDataSource, err)
}

// publish sends a notification update; delivery failures are logged, never
// propagated back into the request or job path.
func (s *ExportService) publish(ctx context.Context, n domain.Notification) {
	if err := s.channel.Publish(ctx, n); err != nil {
		log.Printf("Failed to publish notification %s (job %s): %v", n.ID, n.JobID, err)
	}
}
