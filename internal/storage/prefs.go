// Package storage holds the persistence ports of the yard planner: uploaded
// seed fixtures and the key/value store behind the dashboard settings.
package storage

import (
	"context"
	"sync"
)

// PrefStore is a string key/value port for UI preferences.
type PrefStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	All(ctx context.Context) (map[string]string, error)
	Close() error
}

// MemoryPrefStore keeps preferences in process memory.
type MemoryPrefStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryPrefStore creates an empty in-memory store.
func NewMemoryPrefStore() *MemoryPrefStore {
	return &MemoryPrefStore{values: make(map[string]string)}
}

func (m *MemoryPrefStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryPrefStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryPrefStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryPrefStore) All(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryPrefStore) Close() error { return nil }
