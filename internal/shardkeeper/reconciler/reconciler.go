// Package reconciler implements the reconciliation logic that repairs the
// physical shard files and the catalog after failures or partial operations.
package reconciler

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gitlab.com/shardkeeper/shardkeeper/internal/helper"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/commonerr"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/filestore"
	"golang.org/x/sync/errgroup"
)

// Reconciler repairs discrepancies between the catalog and the physical
// shard files: it restores missing primaries from surviving replicas, tops up
// replica entries to the global replication level and equalizes replica file
// content against the primaries.
type Reconciler struct {
	log                   logrus.FieldLogger
	catalogs              catalog.Store
	files                 filestore.Store
	copyWorkers           int
	reconciliationSeconds prometheus.Histogram
	repairsTotal          *prometheus.CounterVec
	// handleError is called with a possible error from Reconcile.
	// If it returns an error, Run stops and returns with the error.
	handleError func(error) error
}

// NewReconciler returns a new Reconciler for repairing the store's shards.
func NewReconciler(log logrus.FieldLogger, catalogs catalog.Store, files filestore.Store, buckets []float64, copyWorkers int) *Reconciler {
	log = log.WithField("component", "reconciler")

	if copyWorkers < 1 {
		copyWorkers = 1
	}

	r := &Reconciler{
		log:         log,
		catalogs:    catalogs,
		files:       files,
		copyWorkers: copyWorkers,
		reconciliationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shardkeeper_reconciliation_seconds",
			Help:    "The time spent performing a single reconciliation pass.",
			Buckets: buckets,
		}),
		repairsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shardkeeper_reconciliation_repairs_total",
			Help: "Total number of repairs made by reconciliation passes.",
		}, []string{"kind"}),
		handleError: func(err error) error {
			log.WithError(err).Error("automatic reconciliation failed")
			return nil
		},
	}

	return r
}

// Describe returns all metric descriptors.
func (r *Reconciler) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(r, ch)
}

// Collect collects all metrics.
func (r *Reconciler) Collect(ch chan<- prometheus.Metric) {
	r.reconciliationSeconds.Collect(ch)
	r.repairsTotal.Collect(ch)
}

// Run reconciles on each tick the Ticker emits. Run returns when the context
// is canceled, returning the error from the context.
func (r *Reconciler) Run(ctx context.Context, ticker helper.Ticker) error {
	r.log.WithField("copy_workers", r.copyWorkers).Info("automatic reconciler started")
	defer r.log.Info("automatic reconciler stopped")

	defer ticker.Stop()

	for {
		ticker.Reset()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if _, err := r.Reconcile(ctx); err != nil {
				if err := r.handleError(err); err != nil {
					return err
				}
			}
		}
	}
}

// Result summarizes the repairs of a single reconciliation pass.
type Result struct {
	// RestoredPrimaries is the number of primary files recreated from a
	// replica.
	RestoredPrimaries int
	// CreatedEntries is the number of catalog entries added.
	CreatedEntries int
	// CopiedFiles is the number of replica files written because they
	// were missing or held outdated content.
	CopiedFiles int
	// CopiedBytes is the total content size written for CopiedFiles.
	CopiedBytes int64
}

// Empty reports whether the pass found nothing to repair.
func (res Result) Empty() bool {
	return res == Result{}
}

// shardGroup collects the catalog state of one shard id.
type shardGroup struct {
	id              int
	primary         catalog.Key
	hasPrimaryEntry bool
	replicaEntries  []catalog.Key
}

// Reconcile performs a single reconciliation pass.
//
// The pass restores, in order: missing primary files (from the
// lowest-indexed surviving replica file), missing primary catalog entries
// (mirrored back from a replica entry), missing replica catalog entries up to
// the global replication level, and finally the content of every replica
// file that is missing or differs from its primary. The catalog is persisted
// last, and only if entries changed.
//
// When a shard has neither its primary file nor any replica file left the
// pass fails with a DataLossError naming all such shards, without writing
// anything.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	defer prometheus.NewTimer(r.reconciliationSeconds).ObserveDuration()

	var res Result

	cat, err := r.catalogs.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("load catalog: %w", err)
	}

	if len(cat) == 0 {
		r.log.Debug("reconciliation skipped: catalog is empty")
		return res, nil
	}

	groups := groupShards(cat)
	globalMax := cat.ReplicationLevel()

	presentKeys, err := r.files.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list shard files: %w", err)
	}

	present := make(map[catalog.Key]struct{}, len(presentKeys))
	replicaFiles := map[int][]catalog.Key{}
	for _, key := range presentKeys {
		present[key] = struct{}{}
		if !key.IsPrimary() {
			// List returns sorted keys, so these stay ordered by index.
			replicaFiles[key.ID] = append(replicaFiles[key.ID], key)
		}
	}

	// Plan the primary restores before writing anything: when any shard has
	// no surviving copy at all, the pass must fail without touching state.
	restores := map[int]catalog.Key{}
	var lost []int
	for _, g := range groups {
		if _, ok := present[g.primary]; ok {
			continue
		}
		if sources := replicaFiles[g.id]; len(sources) > 0 {
			restores[g.id] = sources[0]
		} else {
			lost = append(lost, g.id)
		}
	}
	if len(lost) > 0 {
		return res, commonerr.DataLossError{IDs: lost}
	}

	catalogChanged := false

	for _, g := range groups {
		if source, ok := restores[g.id]; ok {
			content, err := r.files.Read(ctx, source)
			if err != nil {
				return res, err
			}
			if err := r.files.Write(ctx, g.primary, content); err != nil {
				return res, err
			}

			r.log.WithFields(logrus.Fields{
				"shard":  g.primary.String(),
				"source": source.String(),
			}).Info("restored primary from replica")
			r.repairsTotal.WithLabelValues("primary").Inc()
			res.RestoredPrimaries++
		}

		// A group without a primary entry can only come from manual edits
		// of the catalog document. The replica entries mirror the
		// primary's range, so it can be restored from any of them.
		if !g.hasPrimaryEntry {
			cat[g.primary] = cat[g.replicaEntries[0]]
			r.repairsTotal.WithLabelValues("entry").Inc()
			res.CreatedEntries++
			catalogChanged = true
		}

		rng := cat[g.primary]
		for index := 1; index <= globalMax; index++ {
			key := catalog.NewReplica(g.id, index)
			if existing, ok := cat[key]; ok {
				if existing != rng {
					cat[key] = rng
					catalogChanged = true
				}
				continue
			}

			cat[key] = rng
			r.repairsTotal.WithLabelValues("entry").Inc()
			res.CreatedEntries++
			catalogChanged = true
		}

		copiedFiles, copiedBytes, err := r.equalizeReplicas(ctx, g, globalMax, present)
		if err != nil {
			return res, err
		}
		res.CopiedFiles += copiedFiles
		res.CopiedBytes += copiedBytes
	}

	if catalogChanged {
		if err := r.catalogs.Save(ctx, cat); err != nil {
			return res, fmt.Errorf("save catalog: %w", err)
		}
	}

	if res.Empty() {
		r.log.Debug("reconciliation found nothing to repair")
	} else {
		r.log.WithFields(logrus.Fields{
			"restored_primaries": res.RestoredPrimaries,
			"created_entries":    res.CreatedEntries,
			"copied_files":       res.CopiedFiles,
			"copied_bytes":       res.CopiedBytes,
		}).Info("reconciliation repaired the store")
	}

	return res, nil
}

// equalizeReplicas writes the primary's content to every replica file of the
// group that is missing or differs from it.
func (r *Reconciler) equalizeReplicas(ctx context.Context, g *shardGroup, globalMax int, present map[catalog.Key]struct{}) (int, int64, error) {
	if globalMax == 0 {
		return 0, 0, nil
	}

	content, err := r.files.Read(ctx, g.primary)
	if err != nil {
		return 0, 0, err
	}

	var toCopy []catalog.Key
	for index := 1; index <= globalMax; index++ {
		key := catalog.NewReplica(g.id, index)

		if _, ok := present[key]; ok {
			replicaContent, err := r.files.Read(ctx, key)
			if err != nil {
				return 0, 0, err
			}
			if bytes.Equal(content, replicaContent) {
				continue
			}
		}

		toCopy = append(toCopy, key)
	}

	if len(toCopy) == 0 {
		return 0, 0, nil
	}

	if err := r.copyContent(ctx, toCopy, content); err != nil {
		return 0, 0, err
	}

	r.log.WithFields(logrus.Fields{
		"shard":    g.primary.String(),
		"replicas": len(toCopy),
	}).Debug("replica content repaired")
	r.repairsTotal.WithLabelValues("copy").Add(float64(len(toCopy)))

	return len(toCopy), int64(len(content)) * int64(len(toCopy)), nil
}

// copyContent writes content to every given key, fanning out over the
// configured number of copy workers.
func (r *Reconciler) copyContent(ctx context.Context, keys []catalog.Key, content []byte) error {
	workers := r.copyWorkers
	if workers > len(keys) {
		workers = len(keys)
	}

	eg, egctx := errgroup.WithContext(ctx)
	jobs := make(chan catalog.Key)

	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			for key := range jobs {
				if err := r.files.Write(egctx, key, content); err != nil {
					return fmt.Errorf("copy to replica %s: %w", key, err)
				}
			}
			return nil
		})
	}

feed:
	for _, key := range keys {
		select {
		case jobs <- key:
		case <-egctx.Done():
			break feed
		}
	}
	close(jobs)

	return eg.Wait()
}

func groupShards(cat catalog.Catalog) []*shardGroup {
	byID := map[int]*shardGroup{}
	for key := range cat {
		g, ok := byID[key.ID]
		if !ok {
			g = &shardGroup{id: key.ID, primary: catalog.NewPrimary(key.ID)}
			byID[key.ID] = g
		}

		if key.IsPrimary() {
			g.hasPrimaryEntry = true
		} else {
			g.replicaEntries = append(g.replicaEntries, key)
		}
	}

	groups := make([]*shardGroup, 0, len(byID))
	for _, g := range byID {
		catalog.SortKeys(g.replicaEntries)
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].id < groups[j].id })

	return groups
}
