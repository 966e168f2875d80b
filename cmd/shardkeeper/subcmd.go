package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/config"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/filestore"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/reconciler"
)

type subcmd interface {
	FlagSet() *flag.FlagSet
	Exec(flags *flag.FlagSet, config config.Config) error
}

var subcommands = map[string]subcmd{
	buildCmdName:         newBuildSubcommand(logger, os.Stdout),
	addShardCmdName:      newAddShardSubcommand(logger, os.Stdout),
	removeShardCmdName:   newRemoveShardSubcommand(logger, os.Stdout),
	addReplicaCmdName:    newAddReplicaSubcommand(logger, os.Stdout),
	removeReplicaCmdName: newRemoveReplicaSubcommand(logger, os.Stdout),
	syncCmdName:          newSyncSubcommand(logger, os.Stdout),
	autoSyncCmdName:      newAutoSyncSubcommand(logger),
	infoCmdName:          newInfoSubcommand(logger, os.Stdout),
	listCmdName:          newListSubcommand(logger, os.Stdout),
}

// subCommand returns an exit code, to be fed into os.Exit.
func subCommand(conf config.Config, arg0 string, argRest []string) int {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	go func() {
		<-interrupt
		os.Exit(130) // indicates program was interrupted
	}()

	subcmd, ok := subcommands[arg0]
	if !ok {
		printfErr("%s: unknown subcommand: %q\n", progname, arg0)
		return 1
	}

	flags := subcmd.FlagSet()

	if err := flags.Parse(argRest); err != nil {
		printfErr("%s\n", err)
		return 1
	}

	if err := subcmd.Exec(flags, conf); err != nil {
		printfErr("%s\n", err)
		return 1
	}

	return 0
}

type unexpectedPositionalArgsError struct{ Command string }

func (err unexpectedPositionalArgsError) Error() string {
	return fmt.Sprintf("%s doesn't accept positional arguments", err.Command)
}

// store bundles the composed components a subcommand operates on.
type store struct {
	catalogs   catalog.Store
	files      filestore.Store
	reconciler *reconciler.Reconciler
	keeper     *shardkeeper.Keeper
	collectors []prometheus.Collector
}

// newStore composes the catalog store, the shard file store, the reconciler
// and the keeper from the configuration.
func newStore(conf config.Config, log logrus.FieldLogger, opts ...shardkeeper.Opt) (*store, error) {
	disk, err := filestore.NewDiskStore(conf.DataDir)
	if err != nil {
		return nil, err
	}

	var files filestore.Store = disk
	catalogs := catalog.NewFileStore(conf.CatalogPath)

	collectors := []prometheus.Collector{catalog.NewCollector(log, catalogs)}

	if conf.Cache.Enabled {
		caching, err := filestore.NewCachingStore(files, conf.Cache.Capacity)
		if err != nil {
			return nil, fmt.Errorf("create shard cache: %w", err)
		}
		files = caching
		collectors = append(collectors, caching)
	}

	rec := reconciler.NewReconciler(log, catalogs, files, conf.Reconciliation.HistogramBuckets, int(conf.Replication.ParallelCopyWorkers))
	collectors = append(collectors, rec)

	return &store{
		catalogs:   catalogs,
		files:      files,
		reconciler: rec,
		keeper:     shardkeeper.NewKeeper(log, catalogs, files, rec, opts...),
		collectors: collectors,
	}, nil
}

func printfErr(format string, a ...interface{}) (int, error) {
	return fmt.Fprintf(os.Stderr, format, a...)
}
