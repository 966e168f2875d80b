package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/config"
)

const (
	addShardCmdName    = "add-shard"
	removeShardCmdName = "remove-shard"
)

type addShardSubcommand struct {
	logger logrus.FieldLogger
	output io.Writer
}

func newAddShardSubcommand(logger logrus.FieldLogger, output io.Writer) *addShardSubcommand {
	return &addShardSubcommand{logger: logger, output: output}
}

func (cmd *addShardSubcommand) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet(addShardCmdName, flag.ContinueOnError)
}

func (cmd *addShardSubcommand) Exec(flags *flag.FlagSet, conf config.Config) error {
	if flags.NArg() > 0 {
		return unexpectedPositionalArgsError{Command: flags.Name()}
	}

	st, err := newStore(conf, cmd.logger)
	if err != nil {
		return err
	}

	count, err := st.keeper.AddShard(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.output, "Store now has %d shard(s).\n", count)

	return nil
}

type removeShardSubcommand struct {
	logger logrus.FieldLogger
	output io.Writer
}

func newRemoveShardSubcommand(logger logrus.FieldLogger, output io.Writer) *removeShardSubcommand {
	return &removeShardSubcommand{logger: logger, output: output}
}

func (cmd *removeShardSubcommand) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet(removeShardCmdName, flag.ContinueOnError)
}

func (cmd *removeShardSubcommand) Exec(flags *flag.FlagSet, conf config.Config) error {
	if flags.NArg() > 0 {
		return unexpectedPositionalArgsError{Command: flags.Name()}
	}

	st, err := newStore(conf, cmd.logger)
	if err != nil {
		return err
	}

	count, err := st.keeper.RemoveShard(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.output, "Store now has %d shard(s).\n", count)

	return nil
}
