package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/config"
)

const listCmdName = "list"

type listSubcommand struct {
	logger   logrus.FieldLogger
	output   io.Writer
	replicas bool
}

func newListSubcommand(logger logrus.FieldLogger, output io.Writer) *listSubcommand {
	return &listSubcommand{logger: logger, output: output}
}

func (cmd *listSubcommand) FlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(listCmdName, flag.ContinueOnError)
	fs.BoolVar(&cmd.replicas, "replicas", false, "list replica keys instead of primary shard ids")
	return fs
}

func (cmd *listSubcommand) Exec(flags *flag.FlagSet, conf config.Config) error {
	if flags.NArg() > 0 {
		return unexpectedPositionalArgsError{Command: flags.Name()}
	}

	st, err := newStore(conf, cmd.logger)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if cmd.replicas {
		keys, err := st.keeper.ReplicaKeys(ctx)
		if err != nil {
			return err
		}

		for _, key := range keys {
			fmt.Fprintln(cmd.output, key.String())
		}

		return nil
	}

	ids, err := st.keeper.PrimaryIDs(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		fmt.Fprintln(cmd.output, id)
	}

	return nil
}
