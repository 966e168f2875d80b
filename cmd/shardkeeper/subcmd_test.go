package main

import (
	"io/ioutil"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/config"
	"gitlab.com/shardkeeper/shardkeeper/internal/testhelper"
)

// testConfig returns a configuration rooted in a temporary directory of the
// test.
func testConfig(t testing.TB) config.Config {
	base := t.TempDir()

	return config.Config{
		DataDir:        filepath.Join(base, "data"),
		CatalogPath:    filepath.Join(base, "mapping.json"),
		Reconciliation: config.DefaultReconciliationConfig(),
		Replication:    config.DefaultReplicationConfig(),
		Cache:          config.DefaultCacheConfig(),
	}
}

func writeCorpus(t testing.TB, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "corpus")
	testhelper.MustWriteFile(t, path, []byte(content))

	return path
}

// buildStore initializes the store under conf by running the build
// subcommand.
func buildStore(t testing.TB, conf config.Config, shards int, corpus string) {
	t.Helper()

	cmd := newBuildSubcommand(testhelper.NewDiscardingLogEntry(t), ioutil.Discard)

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse([]string{"-shards", strconv.Itoa(shards), "-input", writeCorpus(t, corpus)}))
	require.NoError(t, cmd.Exec(flags, conf))
}

// raiseReplication raises the replication level of the store under conf by
// one by running the add-replica subcommand.
func raiseReplication(t testing.TB, conf config.Config) {
	t.Helper()

	cmd := newAddReplicaSubcommand(testhelper.NewDiscardingLogEntry(t), ioutil.Discard)

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse(nil))
	require.NoError(t, cmd.Exec(flags, conf))
}

func requireShardFile(t testing.TB, conf config.Config, name, content string) {
	t.Helper()

	require.Equal(t, content, string(testhelper.MustReadFile(t, filepath.Join(conf.DataDir, name+".shard"))))
}

func TestSubCommand_unknown(t *testing.T) {
	require.Equal(t, 1, subCommand(config.Config{}, "no-such-command", nil))
}
