package sources

import (
	"fmt"

	"github.com/logistics/backend/internal/domain/reconcile"
)

// Registry holds the configured source adapters and hands them out by kind
// or in canonical order. Adapters for disabled sources are simply never
// registered; the pipeline iterates whatever is present.
type Registry struct {
	adapters map[reconcile.SourceKind]reconcile.SourceAdapter
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[reconcile.SourceKind]reconcile.SourceAdapter),
	}
}

// Register adds an adapter to the registry, replacing any previous adapter
// for the same source kind
func (r *Registry) Register(adapter reconcile.SourceAdapter) {
	r.adapters[adapter.Source()] = adapter
}

// Get returns the adapter for the given source kind
func (r *Registry) Get(kind reconcile.SourceKind) (reconcile.SourceAdapter, error) {
	adapter, ok := r.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reconcile.ErrUnknownSource, kind)
	}
	return adapter, nil
}

// List returns the registered adapters in canonical source order
func (r *Registry) List() []reconcile.SourceAdapter {
	adapters := make([]reconcile.SourceAdapter, 0, len(r.adapters))
	for _, kind := range reconcile.AllSourceKinds() {
		if adapter, ok := r.adapters[kind]; ok {
			adapters = append(adapters, adapter)
		}
	}
	return adapters
}
