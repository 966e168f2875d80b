package main

import (
	"bytes"
	"errors"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/commonerr"
	"gitlab.com/shardkeeper/shardkeeper/internal/testhelper"
)

func TestBuildSubcommand(t *testing.T) {
	conf := testConfig(t)

	out := &bytes.Buffer{}
	cmd := newBuildSubcommand(testhelper.NewDiscardingLogEntry(t), out)

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse([]string{"-shards", "4", "-input", writeCorpus(t, "AAAABBBBCCCCDDDD")}))
	require.NoError(t, cmd.Exec(flags, conf))

	require.Equal(t, "Built 4 shard(s) from 16 corpus byte(s).\n", out.String())

	requireShardFile(t, conf, "0", "AAAA")
	requireShardFile(t, conf, "1", "BBBB")
	requireShardFile(t, conf, "2", "CCCC")
	requireShardFile(t, conf, "3", "DDDD")

	require.JSONEq(t, `{
		"0": {"start": 0, "end": 3},
		"1": {"start": 4, "end": 7},
		"2": {"start": 8, "end": 11},
		"3": {"start": 12, "end": 15}
	}`, string(testhelper.MustReadFile(t, conf.CatalogPath)))
}

func TestBuildSubcommand_noInput(t *testing.T) {
	cmd := newBuildSubcommand(testhelper.NewDiscardingLogEntry(t), ioutil.Discard)

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse(nil))
	require.Equal(t, errNoInputFile, cmd.Exec(flags, testConfig(t)))
}

func TestBuildSubcommand_positionalArgs(t *testing.T) {
	cmd := newBuildSubcommand(testhelper.NewDiscardingLogEntry(t), ioutil.Discard)

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse([]string{"positional"}))
	require.Equal(t, unexpectedPositionalArgsError{Command: "build"}, cmd.Exec(flags, testConfig(t)))
}

func TestBuildSubcommand_alreadyInitialized(t *testing.T) {
	conf := testConfig(t)
	buildStore(t, conf, 2, "abcd")

	cmd := newBuildSubcommand(testhelper.NewDiscardingLogEntry(t), ioutil.Discard)

	flags := cmd.FlagSet()
	require.NoError(t, flags.Parse([]string{"-input", writeCorpus(t, "abcd")}))
	require.True(t, errors.Is(cmd.Exec(flags, conf), commonerr.ErrAlreadyInitialized))
}
