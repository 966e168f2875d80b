// Package commonerr contains the error types shared across the keeper's
// operation surface. Callers match them with errors.Is and errors.As.
package commonerr

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
)

var (
	// ErrAlreadyInitialized is returned by build when the catalog already
	// contains shards.
	ErrAlreadyInitialized = errors.New("store is already initialized")
	// ErrNotInitialized is returned by operations that need an existing
	// store when the catalog is empty.
	ErrNotInitialized = errors.New("store is not initialized")
	// ErrLastShard is returned when removing a shard would leave the store
	// without any.
	ErrLastShard = errors.New("cannot remove the last shard")
	// ErrNoReplicas is returned when lowering the replication level below
	// zero.
	ErrNoReplicas = errors.New("no replicas to remove")
)

// InvalidShardCountError is returned when a store is built with fewer than
// one shard.
type InvalidShardCountError struct {
	Count int
}

func (err InvalidShardCountError) Error() string {
	return fmt.Sprintf("invalid shard count %d: at least one shard is required", err.Count)
}

// DataLossError is returned by reconciliation when neither the primary file
// nor any replica file of a shard survives. Nothing is repaired when it is
// returned.
type DataLossError struct {
	// IDs are the shards without any surviving copy, ascending.
	IDs []int
}

func (err DataLossError) Error() string {
	ids := make([]string, len(err.IDs))
	for i, id := range err.IDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("no surviving copy of shard(s) %s", strings.Join(ids, ", "))
}

// ShardNotFoundError is returned when a queried shard key has no catalog
// entry. It carries the valid keys so the caller can point at them.
type ShardNotFoundError struct {
	Key       catalog.Key
	Primaries []int
	Replicas  []catalog.Key
}

// NewShardNotFoundError returns a ShardNotFoundError for key listing the
// valid primary IDs and replica keys of the given catalog.
func NewShardNotFoundError(key catalog.Key, c catalog.Catalog) ShardNotFoundError {
	return ShardNotFoundError{
		Key:       key,
		Primaries: c.PrimaryIDs(),
		Replicas:  c.ReplicaKeys(),
	}
}

func (err ShardNotFoundError) Error() string {
	replicas := make([]string, len(err.Replicas))
	for i, key := range err.Replicas {
		replicas[i] = key.String()
	}
	return fmt.Sprintf(
		"shard %q not found: valid primary ids %v, valid replica keys [%s]",
		err.Key, err.Primaries, strings.Join(replicas, " "),
	)
}

// Is makes two ShardNotFoundErrors for the same key match regardless of the
// catalog contents they captured.
func (err ShardNotFoundError) Is(target error) bool {
	t, ok := target.(ShardNotFoundError)
	return ok && t.Key == err.Key
}
