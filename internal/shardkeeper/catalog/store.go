package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sync"

	"gitlab.com/shardkeeper/shardkeeper/internal/safe"
)

// Store provides access to the persisted catalog document.
type Store interface {
	// Load returns the current catalog. A store that was never saved to
	// returns an empty catalog, not an error.
	Load(ctx context.Context) (Catalog, error)
	// Save replaces the persisted catalog with the given one. The
	// replacement is atomic: a reader either sees the previous document or
	// the new one, never a mix.
	Save(ctx context.Context, catalog Catalog) error
}

// FileStore persists the catalog as a single indented JSON document.
type FileStore struct {
	path string
}

// NewFileStore returns a Store backed by the JSON document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var _ Store = (*FileStore)(nil)

// Load implements Store. A missing document yields an empty catalog.
func (fs *FileStore) Load(ctx context.Context) (Catalog, error) {
	content, err := ioutil.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Catalog{}, nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(content, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %q: %w", fs.path, err)
	}

	return catalog, nil
}

// Save implements Store using an atomic replace of the document.
func (fs *FileStore) Save(ctx context.Context, catalog Catalog) error {
	content, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	writer, err := safe.NewFileWriter(fs.path)
	if err != nil {
		return fmt.Errorf("stage catalog: %w", err)
	}
	defer writer.Close()

	if _, err := writer.Write(append(content, '\n')); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	if err := writer.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}

	return nil
}

// MemoryStore is an in-memory Store for testing purposes.
type MemoryStore struct {
	mu      sync.Mutex
	catalog Catalog
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{catalog: Catalog{}}
}

var _ Store = (*MemoryStore)(nil)

// Load implements Store. The returned catalog is a copy; mutating it does
// not affect the store until it is saved back.
func (ms *MemoryStore) Load(ctx context.Context) (Catalog, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.catalog.Clone(), nil
}

// Save implements Store.
func (ms *MemoryStore) Save(ctx context.Context, catalog Catalog) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.catalog = catalog.Clone()
	return nil
}
