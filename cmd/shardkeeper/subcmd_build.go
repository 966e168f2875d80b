package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/config"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/corpus"
)

const buildCmdName = "build"

var errNoInputFile = errors.New("the input flag must be passed")

type buildSubcommand struct {
	logger logrus.FieldLogger
	output io.Writer
	shards int
	input  string
}

func newBuildSubcommand(logger logrus.FieldLogger, output io.Writer) *buildSubcommand {
	return &buildSubcommand{logger: logger, output: output}
}

func (cmd *buildSubcommand) FlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(buildCmdName, flag.ContinueOnError)
	fs.IntVar(&cmd.shards, "shards", 1, "number of shards to split the corpus into")
	fs.StringVar(&cmd.input, "input", "", "path of the corpus file to build the store from")
	return fs
}

func (cmd *buildSubcommand) Exec(flags *flag.FlagSet, conf config.Config) error {
	if flags.NArg() > 0 {
		return unexpectedPositionalArgsError{Command: flags.Name()}
	}

	if cmd.input == "" {
		return errNoInputFile
	}

	ctx := context.Background()

	content, err := corpus.NewFileLoader(cmd.input).Load(ctx)
	if err != nil {
		return err
	}

	st, err := newStore(conf, cmd.logger)
	if err != nil {
		return err
	}

	if err := st.keeper.Build(ctx, cmd.shards, content); err != nil {
		return err
	}

	fmt.Fprintf(cmd.output, "Built %d shard(s) from %d corpus byte(s).\n", cmd.shards, len(content))

	return nil
}
