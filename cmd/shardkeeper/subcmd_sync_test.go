package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gitlab.com/shardkeeper/shardkeeper/internal/helper"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/commonerr"
	"gitlab.com/shardkeeper/shardkeeper/internal/testhelper"
)

func TestSyncSubcommand(t *testing.T) {
	conf := testConfig(t)
	buildStore(t, conf, 2, "aabb")
	raiseReplication(t, conf)

	testhelper.MustRemoveFile(t, filepath.Join(conf.DataDir, "0.shard"))

	out := &bytes.Buffer{}
	cmd := newSyncSubcommand(testhelper.NewDiscardingLogEntry(t), out)

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse(nil))
	require.NoError(t, cmd.Exec(flags, conf))

	require.Equal(t, `Restored primaries: 1
Created catalog entries: 0
Copied replica files: 0 (0 byte(s))
`, out.String())
	requireShardFile(t, conf, "0", "aa")
}

func TestSyncSubcommand_nothingToRepair(t *testing.T) {
	conf := testConfig(t)
	buildStore(t, conf, 2, "aabb")

	out := &bytes.Buffer{}
	cmd := newSyncSubcommand(testhelper.NewDiscardingLogEntry(t), out)

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse(nil))
	require.NoError(t, cmd.Exec(flags, conf))

	require.Equal(t, "Nothing to repair.\n", out.String())
}

func TestSyncSubcommand_dataLoss(t *testing.T) {
	conf := testConfig(t)
	buildStore(t, conf, 2, "aabb")
	raiseReplication(t, conf)

	testhelper.MustRemoveFile(t, filepath.Join(conf.DataDir, "1.shard"))
	testhelper.MustRemoveFile(t, filepath.Join(conf.DataDir, "1-1.shard"))

	cmd := newSyncSubcommand(testhelper.NewDiscardingLogEntry(t), ioutil.Discard)

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse(nil))
	require.Equal(t, commonerr.DataLossError{IDs: []int{1}}, cmd.Exec(flags, conf))
}

func TestAutoSyncSubcommand(t *testing.T) {
	conf := testConfig(t)
	buildStore(t, conf, 2, "aabb")
	raiseReplication(t, conf)

	testhelper.MustRemoveFile(t, filepath.Join(conf.DataDir, "0-1.shard"))

	ctx, cancel := testhelper.Context()
	defer cancel()

	cmd := newAutoSyncSubcommand(testhelper.NewDiscardingLogEntry(t))
	cmd.ticker = helper.NewCountTicker(1, cancel)

	require.NoError(t, cmd.run(ctx, conf, prometheus.NewRegistry()))
	requireShardFile(t, conf, "0-1", "aa")
}

func TestAutoSyncSubcommand_noInterval(t *testing.T) {
	conf := testConfig(t)
	conf.Reconciliation.SchedulingInterval = 0

	cmd := newAutoSyncSubcommand(testhelper.NewDiscardingLogEntry(t))

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse(nil))
	require.Equal(t, errNoSchedulingInterval, cmd.Exec(flags, conf))
}
