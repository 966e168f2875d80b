// Command shardkeeper manages a partitioned, replicated data store simulated
// over flat files: a logical corpus is split into contiguous shards, each
// shard lives in its own file and may have any number of replica files
// mirroring it. A JSON catalog document records the corpus range every shard
// covers.
//
// All subcommands need the configuration file:
//
//     shardkeeper -config PATH_TO_CONFIG <subcommand>
//
// Build
//
// The subcommand "build" initializes the store by splitting a corpus file
// into the requested number of shards:
//
//     shardkeeper -config PATH_TO_CONFIG build -shards N -input CORPUS
//
// Resizing
//
// The subcommands "add-shard" and "remove-shard" repartition the corpus over
// one shard more or less. Shard IDs stay dense, replicas follow the new
// layout.
//
// Replication
//
// The subcommands "add-replica" and "remove-replica" raise or lower the
// uniform replication level of the store by one.
//
// Sync
//
// The subcommand "sync" reconciles the physical shard files against the
// catalog: lost primaries are restored from their replicas, missing replica
// files and catalog entries are recreated and outdated replica content is
// equalized with the primaries. "auto-sync" keeps doing so periodically on
// reconciliation.scheduling_interval and exposes prometheus metrics on
// prometheus_listen_addr if configured.
//
// Inspection
//
// The subcommand "info" prints a table of the catalog entries and their
// physical state, "list" prints the primary shard IDs or, with -replicas,
// the replica keys.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"gitlab.com/shardkeeper/shardkeeper/internal/log"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/config"
	"gitlab.com/shardkeeper/shardkeeper/internal/version"
)

var (
	flagConfig  = flag.String("config", "", "Location for the config.toml")
	flagVersion = flag.Bool("version", false, "Print version and exit")
	logger      = log.Default()

	errNoConfigFile = errors.New("the config flag must be passed")
)

const progname = "shardkeeper"

func main() {
	flag.Usage = func() {
		cmds := make([]string, 0, len(subcommands))
		for k := range subcommands {
			cmds = append(cmds, k)
		}
		sort.Strings(cmds)

		printfErr("Usage of %s:\n", progname)
		flag.PrintDefaults()
		printfErr("  subcommand (required)\n")
		printfErr("\tOne of %s\n", strings.Join(cmds, ", "))
	}
	flag.Parse()

	// If invoked with -version
	if *flagVersion {
		fmt.Println(version.GetVersionString())
		os.Exit(0)
	}

	conf, err := initConfig()
	if err != nil {
		printfErr("%s: configuration error: %v\n", progname, err)
		os.Exit(1)
	}

	logger = log.Configure(conf.Logging.Format, conf.Logging.Level)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(subCommand(conf, args[0], args[1:]))
}

func initConfig() (config.Config, error) {
	var conf config.Config

	if *flagConfig == "" {
		return conf, errNoConfigFile
	}

	conf, err := config.FromFile(*flagConfig)
	if err != nil {
		return conf, fmt.Errorf("error reading config file: %v", err)
	}

	if err := conf.Validate(); err != nil {
		return config.Config{}, err
	}

	return conf, nil
}
