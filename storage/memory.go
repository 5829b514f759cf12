package storage

import (
	"context"
	"sync"

	"github.com/krisalay/endpoint-cache/types"
)

/*
MemoryBackend is the volatile in-process backend.

Records live in a plain mutex-guarded map and vanish with the process.

Its one correctness guarantee is the absence of aliasing: both Get and
Set work on deep copies, so a caller mutating a value it retrieved (or
one it just submitted) can never corrupt what the backend holds.
*/
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]*types.Record
}

// NewMemory creates an empty volatile backend.
func NewMemory() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]*types.Record)}
}

// Get returns an independent copy of the stored record, or nil on a miss.
func (m *MemoryBackend) Get(ctx context.Context, key string) (*types.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

// Set stores an independent copy of rec under key.
func (m *MemoryBackend) Set(ctx context.Context, key string, rec *types.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = rec.Clone()
	return nil
}

// Remove deletes the entry for key. Missing keys are a no-op.
func (m *MemoryBackend) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// ClearAll drops every record this backend holds.
func (m *MemoryBackend) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]*types.Record)
	return nil
}
