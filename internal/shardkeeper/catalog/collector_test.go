package catalog

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gitlab.com/shardkeeper/shardkeeper/internal/testhelper"
)

func TestCollector(t *testing.T) {
	ctx, cancel := testhelper.Context()
	defer cancel()

	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, Catalog{
		NewPrimary(0):    {Start: 0, End: 3},
		NewReplica(0, 1): {Start: 0, End: 3},
		NewPrimary(1):    {Start: 4, End: 15},
		NewReplica(1, 1): {Start: 4, End: 15},
	}))

	collector := NewCollector(testhelper.NewDiscardingLogEntry(t), store)

	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(`
# HELP shardkeeper_corpus_bytes Total number of logical corpus bytes covered by the primary shards.
# TYPE shardkeeper_corpus_bytes gauge
shardkeeper_corpus_bytes 16
# HELP shardkeeper_replication_level Highest replica index recorded in the catalog.
# TYPE shardkeeper_replication_level gauge
shardkeeper_replication_level 1
# HELP shardkeeper_shards Number of primary shards recorded in the catalog.
# TYPE shardkeeper_shards gauge
shardkeeper_shards 2
`)))
}

func TestCollector_emptyCatalog(t *testing.T) {
	collector := NewCollector(testhelper.NewDiscardingLogEntry(t), NewMemoryStore())

	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(`
# HELP shardkeeper_corpus_bytes Total number of logical corpus bytes covered by the primary shards.
# TYPE shardkeeper_corpus_bytes gauge
shardkeeper_corpus_bytes 0
# HELP shardkeeper_replication_level Highest replica index recorded in the catalog.
# TYPE shardkeeper_replication_level gauge
shardkeeper_replication_level 0
# HELP shardkeeper_shards Number of primary shards recorded in the catalog.
# TYPE shardkeeper_shards gauge
shardkeeper_shards 0
`)))
}
