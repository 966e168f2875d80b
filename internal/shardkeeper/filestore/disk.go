package filestore

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
)

// shardFileSuffix distinguishes shard files from anything else living in the
// data directory, the catalog document included.
const shardFileSuffix = ".shard"

// DiskStore keeps each shard in its own file under a single directory. The
// file of key k is named "<k>.shard".
type DiskStore struct {
	dir string
}

// NewDiskStore returns a DiskStore rooted at dir, creating the directory if
// it does not exist yet.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

var _ Store = (*DiskStore)(nil)

func (ds *DiskStore) path(key catalog.Key) string {
	return filepath.Join(ds.dir, key.String()+shardFileSuffix)
}

// Read implements Store.
func (ds *DiskStore) Read(ctx context.Context, key catalog.Key) ([]byte, error) {
	content, err := ioutil.ReadFile(ds.path(key))
	if err != nil {
		return nil, fmt.Errorf("read shard %s: %w", key, err)
	}
	return content, nil
}

// Write implements Store.
func (ds *DiskStore) Write(ctx context.Context, key catalog.Key, data []byte) error {
	if err := ioutil.WriteFile(ds.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write shard %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (ds *DiskStore) Delete(ctx context.Context, key catalog.Key) error {
	if err := os.Remove(ds.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete shard %s: %w", key, err)
	}
	return nil
}

// Exists implements Store.
func (ds *DiskStore) Exists(ctx context.Context, key catalog.Key) (bool, error) {
	if _, err := os.Stat(ds.path(key)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat shard %s: %w", key, err)
	}
	return true, nil
}

// List implements Store. Files without the shard suffix or with names that do
// not parse as shard keys are not part of the store's namespace and are
// skipped.
func (ds *DiskStore) List(ctx context.Context) ([]catalog.Key, error) {
	entries, err := ioutil.ReadDir(ds.dir)
	if err != nil {
		return nil, fmt.Errorf("list shards: %w", err)
	}

	var keys []catalog.Key
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), shardFileSuffix) {
			continue
		}

		key, err := catalog.ParseKey(strings.TrimSuffix(entry.Name(), shardFileSuffix))
		if err != nil {
			continue
		}

		keys = append(keys, key)
	}

	catalog.SortKeys(keys)
	return keys, nil
}
