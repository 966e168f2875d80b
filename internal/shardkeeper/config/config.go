// Package config handles the shardkeeper configuration file and its
// environment overrides.
package config

import (
	"errors"
	"io/ioutil"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml"
	"github.com/prometheus/client_golang/prometheus"
)

// envPrefix is the prefix of the environment variables that override values
// from the configuration file, e.g. SHARDKEEPER_DATA_DIR.
const envPrefix = "shardkeeper"

var (
	errNoDataDir        = errors.New("data_dir is not set")
	errNoCatalogPath    = errors.New("catalog_path is not set")
	errZeroCopyWorkers  = errors.New("replication.parallel_copy_workers must be greater than zero")
	errCacheCapacity    = errors.New("cache.capacity must be greater than zero")
	errNegativeInterval = errors.New("reconciliation.scheduling_interval can't be negative")
)

// Duration is a trick to let our TOML library parse durations from strings.
type Duration time.Duration

// Duration returns the stdlib duration value.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	td, err := time.ParseDuration(string(text))
	if err == nil {
		*d = Duration(td)
	}
	return err
}

// Config is the configuration of the shardkeeper process.
type Config struct {
	// DataDir is the directory holding the physical shard files.
	DataDir string `toml:"data_dir" split_words:"true"`
	// CatalogPath is the location of the catalog document.
	CatalogPath string `toml:"catalog_path" split_words:"true"`
	// PrometheusListenAddr, when set, makes the auto-sync daemon expose
	// its metrics on this address.
	PrometheusListenAddr string `toml:"prometheus_listen_addr" split_words:"true"`

	Logging        Logging        `toml:"logging"`
	Reconciliation Reconciliation `toml:"reconciliation"`
	Replication    Replication    `toml:"replication"`
	Cache          Cache          `toml:"cache"`
}

// Logging contains the logging configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Reconciliation contains reconciliation specific configuration.
type Reconciliation struct {
	// SchedulingInterval is the interval between reconciliation runs of
	// the auto-sync daemon. 0 disables automatic reconciliation.
	SchedulingInterval Duration `toml:"scheduling_interval" split_words:"true"`
	// HistogramBuckets are the buckets of the reconciliation duration
	// histogram.
	HistogramBuckets []float64 `toml:"histogram_buckets" split_words:"true"`
}

// DefaultReconciliationConfig returns the default reconciliation
// configuration.
func DefaultReconciliationConfig() Reconciliation {
	return Reconciliation{
		SchedulingInterval: Duration(5 * time.Minute),
		HistogramBuckets:   prometheus.DefBuckets,
	}
}

// Replication contains replication specific configuration.
type Replication struct {
	// ParallelCopyWorkers is the number of workers replica copies fan out
	// over during reconciliation.
	ParallelCopyWorkers uint `toml:"parallel_copy_workers" split_words:"true"`
}

// DefaultReplicationConfig returns the default replication configuration.
func DefaultReplicationConfig() Replication {
	return Replication{ParallelCopyWorkers: 1}
}

// Cache configures the LRU cache in front of the shard file store.
type Cache struct {
	Enabled  bool `toml:"enabled"`
	Capacity int  `toml:"capacity"`
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() Cache {
	return Cache{Capacity: 64}
}

// FromFile loads the config for the passed file path and applies environment
// overrides on top of it.
func FromFile(filePath string) (Config, error) {
	conf := &Config{
		DataDir:        "data",
		CatalogPath:    "mapping.json",
		Logging:        Logging{Format: "text", Level: "info"},
		Reconciliation: DefaultReconciliationConfig(),
		Replication:    DefaultReplicationConfig(),
		Cache:          DefaultCacheConfig(),
	}

	content, err := ioutil.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}

	if err := toml.Unmarshal(content, conf); err != nil {
		return Config{}, err
	}

	if err := envconfig.Process(envPrefix, conf); err != nil {
		return Config{}, err
	}

	return *conf, nil
}

// Validate establishes if the config is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errNoDataDir
	}

	if c.CatalogPath == "" {
		return errNoCatalogPath
	}

	if c.Replication.ParallelCopyWorkers == 0 {
		return errZeroCopyWorkers
	}

	if c.Reconciliation.SchedulingInterval < 0 {
		return errNegativeInterval
	}

	if c.Cache.Enabled && c.Cache.Capacity < 1 {
		return errCacheCapacity
	}

	return nil
}
