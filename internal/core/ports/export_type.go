package ports

import (
	"context"
	"encoding/json"

	"export-service/internal/core/domain"
)

// DataSource is a paged cursor over one export type's backing data for a
// single query. An instance is exclusively owned by the request or job that
// created it; FetchPage mutates internal paging state and is not safe for
// concurrent calls on the same instance.
type DataSource interface {
	// FetchPage advances the cursor and returns the next page of records.
	// An empty page signals that the source is drained.
	FetchPage(ctx context.Context) ([]domain.Record, error)

	// TotalCount returns the best-known total for the query. It may be an
	// estimate before the first fetch and is exact afterwards.
	TotalCount() int64
}

// ExportedType describes one exportable entity type: its unique name, the
// permission a caller needs to see it, and a factory producing a fresh
// DataSource per request.
type ExportedType interface {
	Name() string
	RequiredPermission() string
	NewDataSource(query json.RawMessage) (DataSource, error)
}

// Policy authorizes one export request against the current principal and the
// declared query. A nil return allows the request; any error denies it.
// Policies are evaluated before a DataSource is constructed or a job is
// enqueued, and denial must have zero side effects.
type Policy func(ctx context.Context, principal domain.Principal, query json.RawMessage) error

// TypeRegistry holds every exportable type together with its authorization
// policy. Registration is an idempotent overwrite by name, last write wins.
type TypeRegistry interface {
	Register(t ExportedType, policy Policy)

	// List returns all registered types in insertion order.
	List() []ExportedType

	// Resolve returns the type and policy registered under name, or
	// domain.ErrUnknownExportType. Callers treat that as a client error.
	Resolve(name string) (ExportedType, Policy, error)
}
