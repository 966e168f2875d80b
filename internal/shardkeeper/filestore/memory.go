package filestore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
)

// MemoryStore is an in-memory Store for testing purposes.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[catalog.Key][]byte
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: map[catalog.Key][]byte{}}
}

var _ Store = (*MemoryStore)(nil)

// Read implements Store. The returned slice is a copy.
func (ms *MemoryStore) Read(ctx context.Context, key catalog.Key) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	content, ok := ms.files[key]
	if !ok {
		return nil, fmt.Errorf("read shard %s: %w", key, os.ErrNotExist)
	}

	return append([]byte(nil), content...), nil
}

// Write implements Store.
func (ms *MemoryStore) Write(ctx context.Context, key catalog.Key, data []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.files[key] = append([]byte(nil), data...)
	return nil
}

// Delete implements Store.
func (ms *MemoryStore) Delete(ctx context.Context, key catalog.Key) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.files, key)
	return nil
}

// Exists implements Store.
func (ms *MemoryStore) Exists(ctx context.Context, key catalog.Key) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	_, ok := ms.files[key]
	return ok, nil
}

// List implements Store.
func (ms *MemoryStore) List(ctx context.Context) ([]catalog.Key, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	keys := make([]catalog.Key, 0, len(ms.files))
	for key := range ms.files {
		keys = append(keys, key)
	}

	catalog.SortKeys(keys)
	return keys, nil
}
