// Package metrics contains prometheus metric constructors shared by the
// keeper and the command line surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewOperationSeconds returns the histogram observing the wall time of
// keeper operations, labelled by operation. Passing no buckets selects the
// prometheus defaults.
func NewOperationSeconds(buckets []float64) *prometheus.HistogramVec {
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shardkeeper_operation_duration_seconds",
			Help:    "Wall time spent executing keeper operations.",
			Buckets: buckets,
		},
		[]string{"operation"},
	)
}

// RegisterOperationSeconds creates and registers the keeper operation
// histogram.
func RegisterOperationSeconds(buckets []float64, registerer prometheus.Registerer) (*prometheus.HistogramVec, error) {
	operationSeconds := NewOperationSeconds(buckets)
	return operationSeconds, registerer.Register(operationSeconds)
}
