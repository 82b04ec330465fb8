package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"placement-storefront/storage"
)

// Registry hands out one Store per browser profile so that every open view of
// the same profile shares listeners.
type Registry struct {
	persister storage.Persister
	logger    *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(persister storage.Persister, logger *zap.Logger) *Registry {
	return &Registry{
		persister: persister,
		logger:    logger,
		stores:    make(map[string]*Store),
	}
}

// Get returns the store for scope, re-reading persisted contents so writes
// from other instances are picked up.
func (r *Registry) Get(ctx context.Context, scope string) *Store {
	r.mu.Lock()
	s, ok := r.stores[scope]
	if !ok {
		s = Open(ctx, scope, r.persister, r.logger)
		r.stores[scope] = s
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	s.Refresh(ctx)
	return s
}

// Sweep forgets stores without listeners that have not been used for idle.
// Their contents remain in the persister.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for scope, s := range r.stores {
		if s.idle(cutoff) {
			delete(r.stores, scope)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
