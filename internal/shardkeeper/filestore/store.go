// Package filestore provides access to the physical shard files of the
// store. Implementations share one contract: a shard file either exists with
// exactly the content last written, or it does not exist at all.
package filestore

import (
	"context"

	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
)

// Store is the capability set the keeper and the reconciler need on shard
// files.
type Store interface {
	// Read returns the content of the shard file for key. Reading a
	// missing file returns an error matching os.ErrNotExist.
	Read(ctx context.Context, key catalog.Key) ([]byte, error)
	// Write replaces the shard file for key with data, creating it if
	// needed.
	Write(ctx context.Context, key catalog.Key, data []byte) error
	// Delete removes the shard file for key. Deleting a missing file is
	// not an error.
	Delete(ctx context.Context, key catalog.Key) error
	// Exists reports whether the shard file for key is present.
	Exists(ctx context.Context, key catalog.Key) (bool, error)
	// List returns the keys of all present shard files, sorted.
	List(ctx context.Context) ([]catalog.Key, error)
}
