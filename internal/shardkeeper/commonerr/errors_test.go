package commonerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
)

func TestInvalidShardCountError(t *testing.T) {
	err := InvalidShardCountError{Count: -3}
	require.Equal(t, "invalid shard count -3: at least one shard is required", err.Error())

	var invalidCount InvalidShardCountError
	require.True(t, errors.As(fmt.Errorf("build: %w", err), &invalidCount))
	require.Equal(t, -3, invalidCount.Count)
}

func TestDataLossError(t *testing.T) {
	require.Equal(t,
		"no surviving copy of shard(s) 2",
		DataLossError{IDs: []int{2}}.Error(),
	)
	require.Equal(t,
		"no surviving copy of shard(s) 0, 2, 5",
		DataLossError{IDs: []int{0, 2, 5}}.Error(),
	)
}

func TestShardNotFoundError(t *testing.T) {
	c := catalog.Catalog{
		catalog.NewPrimary(0):    {Start: 0, End: 3},
		catalog.NewPrimary(1):    {Start: 4, End: 7},
		catalog.NewReplica(0, 1): {Start: 0, End: 3},
	}

	err := NewShardNotFoundError(catalog.NewPrimary(7), c)
	require.Equal(t,
		`shard "7" not found: valid primary ids [0 1], valid replica keys [0-1]`,
		err.Error(),
	)

	wrapped := fmt.Errorf("get shard: %w", err)
	require.True(t, errors.Is(wrapped, ShardNotFoundError{Key: catalog.NewPrimary(7)}))
	require.False(t, errors.Is(wrapped, ShardNotFoundError{Key: catalog.NewPrimary(1)}))

	var notFound ShardNotFoundError
	require.True(t, errors.As(wrapped, &notFound))
	require.Equal(t, []int{0, 1}, notFound.Primaries)
}
