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
	addReplicaCmdName    = "add-replica"
	removeReplicaCmdName = "remove-replica"
)

type addReplicaSubcommand struct {
	logger logrus.FieldLogger
	output io.Writer
}

func newAddReplicaSubcommand(logger logrus.FieldLogger, output io.Writer) *addReplicaSubcommand {
	return &addReplicaSubcommand{logger: logger, output: output}
}

func (cmd *addReplicaSubcommand) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet(addReplicaCmdName, flag.ContinueOnError)
}

func (cmd *addReplicaSubcommand) Exec(flags *flag.FlagSet, conf config.Config) error {
	if flags.NArg() > 0 {
		return unexpectedPositionalArgsError{Command: flags.Name()}
	}

	st, err := newStore(conf, cmd.logger)
	if err != nil {
		return err
	}

	level, err := st.keeper.AddReplication(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.output, "Replication level is now %d.\n", level)

	return nil
}

type removeReplicaSubcommand struct {
	logger logrus.FieldLogger
	output io.Writer
}

func newRemoveReplicaSubcommand(logger logrus.FieldLogger, output io.Writer) *removeReplicaSubcommand {
	return &removeReplicaSubcommand{logger: logger, output: output}
}

func (cmd *removeReplicaSubcommand) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet(removeReplicaCmdName, flag.ContinueOnError)
}

func (cmd *removeReplicaSubcommand) Exec(flags *flag.FlagSet, conf config.Config) error {
	if flags.NArg() > 0 {
		return unexpectedPositionalArgsError{Command: flags.Name()}
	}

	st, err := newStore(conf, cmd.logger)
	if err != nil {
		return err
	}

	level, err := st.keeper.RemoveReplication(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.output, "Replication level is now %d.\n", level)

	return nil
}
