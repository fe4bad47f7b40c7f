package usecases

import (
	"sync"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

type registryEntry struct {
	exportedType ports.ExportedType
	policy       ports.Policy
}

// TypeRegistry is the in-process registry of exportable types. Types are
// registered at startup and resolved by name on every request.
type TypeRegistry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
	order   []string
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		entries: make(map[string]registryEntry),
	}
}

// Register adds or replaces the type under its name, last write wins. The
// policy registered alongside the type authorizes every data and run request
// for it; a nil policy denies everything.
func (r *TypeRegistry) Register(t ports.ExportedType, policy ports.Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = registryEntry{exportedType: t, policy: policy}
}

// List returns all registered types, insertion-stable.
func (r *TypeRegistry) List() []ports.ExportedType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]ports.ExportedType, 0, len(r.order))
	for _, name := range r.order {
		types = append(types, r.entries[name].exportedType)
	}
	return types
}

// Resolve returns the type and policy registered under name, or
// domain.ErrUnknownExportType when absent.
func (r *TypeRegistry) Resolve(name string) (ports.ExportedType, ports.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, nil, domain.ErrUnknownExportType
	}
	return entry.exportedType, entry.policy, nil
}
