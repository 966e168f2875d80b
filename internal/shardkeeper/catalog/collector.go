package catalog

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	descShards = prometheus.NewDesc(
		"shardkeeper_shards",
		"Number of primary shards recorded in the catalog.",
		nil,
		nil,
	)
	descReplicationLevel = prometheus.NewDesc(
		"shardkeeper_replication_level",
		"Highest replica index recorded in the catalog.",
		nil,
		nil,
	)
	descCorpusBytes = prometheus.NewDesc(
		"shardkeeper_corpus_bytes",
		"Total number of logical corpus bytes covered by the primary shards.",
		nil,
		nil,
	)
)

// Collector collects catalog-level metrics from a Store.
type Collector struct {
	log   logrus.FieldLogger
	store Store
}

// NewCollector returns a new Collector reading from the given store.
func NewCollector(log logrus.FieldLogger, store Store) *Collector {
	return &Collector{
		log:   log.WithField("component", "catalog.Collector"),
		store: store,
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	catalog, err := c.store.Load(context.TODO())
	if err != nil {
		c.log.WithError(err).Error("failed collecting catalog metrics")
		return
	}

	ch <- prometheus.MustNewConstMetric(descShards, prometheus.GaugeValue, float64(len(catalog.PrimaryIDs())))
	ch <- prometheus.MustNewConstMetric(descReplicationLevel, prometheus.GaugeValue, float64(catalog.ReplicationLevel()))
	ch <- prometheus.MustNewConstMetric(descCorpusBytes, prometheus.GaugeValue, float64(catalog.CorpusSize()))
}
