package filestore

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
	"gitlab.com/shardkeeper/shardkeeper/internal/testhelper"
)

// countingStore records how often the backing store is read to prove reads
// are served from the cache.
type countingStore struct {
	Store
	reads int
}

func (cs *countingStore) Read(ctx context.Context, key catalog.Key) ([]byte, error) {
	cs.reads++
	return cs.Store.Read(ctx, key)
}

func TestCachingStore_readThrough(t *testing.T) {
	ctx, cancel := testhelper.Context()
	defer cancel()

	backing := &countingStore{Store: NewMemoryStore()}
	require.NoError(t, backing.Write(ctx, catalog.NewPrimary(0), []byte("AAAA")))

	cached, err := NewCachingStore(backing, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		content, err := cached.Read(ctx, catalog.NewPrimary(0))
		require.NoError(t, err)
		require.Equal(t, []byte("AAAA"), content)
	}

	require.Equal(t, 1, backing.reads, "repeated reads must be served from the cache")
}

func TestCachingStore_writeKeepsCacheCoherent(t *testing.T) {
	ctx, cancel := testhelper.Context()
	defer cancel()

	backing := &countingStore{Store: NewMemoryStore()}
	cached, err := NewCachingStore(backing, 8)
	require.NoError(t, err)

	require.NoError(t, cached.Write(ctx, catalog.NewPrimary(0), []byte("AAAA")))
	require.NoError(t, cached.Write(ctx, catalog.NewPrimary(0), []byte("BBBB")))

	content, err := cached.Read(ctx, catalog.NewPrimary(0))
	require.NoError(t, err)
	require.Equal(t, []byte("BBBB"), content)
	require.Zero(t, backing.reads, "writes must populate the cache")

	require.NoError(t, cached.Delete(ctx, catalog.NewPrimary(0)))

	_, err = cached.Read(ctx, catalog.NewPrimary(0))
	require.Error(t, err, "deleted shard must not be served from the cache")
}

func TestCachingStore_metrics(t *testing.T) {
	ctx, cancel := testhelper.Context()
	defer cancel()

	backing := NewMemoryStore()
	for id := 0; id < 3; id++ {
		require.NoError(t, backing.Write(ctx, catalog.NewPrimary(id), []byte("data")))
	}

	cached, err := NewCachingStore(backing, 2)
	require.NoError(t, err)

	read := func(id int) {
		_, err := cached.Read(ctx, catalog.NewPrimary(id))
		require.NoError(t, err)
	}

	read(0) // miss, populate
	read(0) // hit
	read(1) // miss, populate
	read(2) // miss, populate, evicts 0
	read(0) // miss, populate, evicts 1
	require.NoError(t, cached.Delete(ctx, catalog.NewPrimary(0))) // evicts 0

	require.NoError(t, testutil.CollectAndCompare(cached, strings.NewReader(`
# HELP shardkeeper_shard_cache_access_total Total number of shard cache access operations of the caching file store.
# TYPE shardkeeper_shard_cache_access_total counter
shardkeeper_shard_cache_access_total{type="evict"} 3
shardkeeper_shard_cache_access_total{type="hit"} 1
shardkeeper_shard_cache_access_total{type="miss"} 4
shardkeeper_shard_cache_access_total{type="populate"} 4
`)))
}
