package storage

import (
	"context"
	"sync"
)

type MemoryPersister struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{values: make(map[string][]byte)}
}

func (m *MemoryPersister) Load(_ context.Context, scope, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[storageKey(scope, key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryPersister) Save(_ context.Context, scope, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.values[storageKey(scope, key)] = v
	return nil
}

func (m *MemoryPersister) Delete(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, storageKey(scope, key))
	return nil
}

func storageKey(scope, key string) string {
	return "storefront:" + scope + ":" + key
}
