package main

import (
	"context"
	"flag"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/config"
)

const infoCmdName = "info"

type infoSubcommand struct {
	logger logrus.FieldLogger
	output io.Writer
	shard  string
}

func newInfoSubcommand(logger logrus.FieldLogger, output io.Writer) *infoSubcommand {
	return &infoSubcommand{logger: logger, output: output}
}

func (cmd *infoSubcommand) FlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(infoCmdName, flag.ContinueOnError)
	fs.StringVar(&cmd.shard, "shard", "", "only show the shard with this key, e.g. 2 or 2-1")
	return fs
}

func (cmd *infoSubcommand) Exec(flags *flag.FlagSet, conf config.Config) error {
	if flags.NArg() > 0 {
		return unexpectedPositionalArgsError{Command: flags.Name()}
	}

	st, err := newStore(conf, cmd.logger)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var infos []shardkeeper.ShardInfo
	if cmd.shard != "" {
		key, err := catalog.ParseKey(cmd.shard)
		if err != nil {
			return err
		}

		info, err := st.keeper.GetShard(ctx, key)
		if err != nil {
			return err
		}

		infos = []shardkeeper.ShardInfo{info}
	} else {
		infos, err = st.keeper.ListShards(ctx)
		if err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(cmd.output)
	table.SetHeader([]string{"Key", "Kind", "Start", "End", "Span", "Present"})

	for _, info := range infos {
		kind := "primary"
		if !info.Key.IsPrimary() {
			kind = "replica"
		}

		table.Append([]string{
			info.Key.String(),
			kind,
			strconv.FormatInt(info.Range.Start, 10),
			strconv.FormatInt(info.Range.End, 10),
			strconv.FormatInt(info.Range.Span(), 10),
			strconv.FormatBool(info.Present),
		})
	}

	table.Render()

	return nil
}
