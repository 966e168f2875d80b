package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gitlab.com/shardkeeper/shardkeeper/internal/helper"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/config"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/metrics"
)

const (
	syncCmdName     = "sync"
	autoSyncCmdName = "auto-sync"
)

var errNoSchedulingInterval = errors.New("reconciliation.scheduling_interval must be set for auto-sync")

type syncSubcommand struct {
	logger logrus.FieldLogger
	output io.Writer
}

func newSyncSubcommand(logger logrus.FieldLogger, output io.Writer) *syncSubcommand {
	return &syncSubcommand{logger: logger, output: output}
}

func (cmd *syncSubcommand) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet(syncCmdName, flag.ContinueOnError)
}

func (cmd *syncSubcommand) Exec(flags *flag.FlagSet, conf config.Config) error {
	if flags.NArg() > 0 {
		return unexpectedPositionalArgsError{Command: flags.Name()}
	}

	st, err := newStore(conf, cmd.logger)
	if err != nil {
		return err
	}

	result, err := st.keeper.Sync(context.Background())
	if err != nil {
		return err
	}

	if result.Empty() {
		fmt.Fprintln(cmd.output, "Nothing to repair.")
		return nil
	}

	fmt.Fprintf(cmd.output, "Restored primaries: %d\n", result.RestoredPrimaries)
	fmt.Fprintf(cmd.output, "Created catalog entries: %d\n", result.CreatedEntries)
	fmt.Fprintf(cmd.output, "Copied replica files: %d (%d byte(s))\n", result.CopiedFiles, result.CopiedBytes)

	return nil
}

type autoSyncSubcommand struct {
	logger logrus.FieldLogger
	ticker helper.Ticker
}

func newAutoSyncSubcommand(logger logrus.FieldLogger) *autoSyncSubcommand {
	return &autoSyncSubcommand{logger: logger}
}

func (cmd *autoSyncSubcommand) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet(autoSyncCmdName, flag.ContinueOnError)
}

func (cmd *autoSyncSubcommand) Exec(flags *flag.FlagSet, conf config.Config) error {
	if flags.NArg() > 0 {
		return unexpectedPositionalArgsError{Command: flags.Name()}
	}

	interval := conf.Reconciliation.SchedulingInterval.Duration()
	if interval <= 0 {
		return errNoSchedulingInterval
	}

	if cmd.ticker == nil {
		cmd.ticker = helper.NewTimerTicker(interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SIGINT is handled by subCommand already; SIGTERM stops the daemon
	// cleanly.
	termination := make(chan os.Signal, 1)
	signal.Notify(termination, syscall.SIGTERM)
	defer signal.Stop(termination)

	go func() {
		<-termination
		cmd.logger.Info("received SIGTERM, stopping automatic reconciliation")
		cancel()
	}()

	return cmd.run(ctx, conf, prometheus.DefaultRegisterer)
}

func (cmd *autoSyncSubcommand) run(ctx context.Context, conf config.Config, promreg prometheus.Registerer) error {
	operationSeconds, err := metrics.RegisterOperationSeconds(conf.Reconciliation.HistogramBuckets, promreg)
	if err != nil {
		return err
	}

	st, err := newStore(conf, cmd.logger, shardkeeper.WithOperationSeconds(operationSeconds))
	if err != nil {
		return err
	}

	promreg.MustRegister(st.collectors...)

	if conf.PrometheusListenAddr != "" {
		l, err := net.Listen("tcp", conf.PrometheusListenAddr)
		if err != nil {
			return fmt.Errorf("prometheus listener: %w", err)
		}
		defer l.Close()

		cmd.logger.WithField("address", conf.PrometheusListenAddr).Info("starting prometheus listener")

		promMux := http.NewServeMux()
		promMux.Handle("/metrics", promhttp.Handler())

		go func() {
			if err := http.Serve(l, promMux); err != nil && ctx.Err() == nil {
				cmd.logger.WithError(err).Error("unable to serve prometheus")
			}
		}()
	}

	if err := st.reconciler.Run(ctx, cmd.ticker); !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
