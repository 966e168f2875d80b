// Package shardkeeper contains the Keeper, the operation surface of the
// store. The Keeper composes the catalog store, the shard file store and the
// reconciler and serializes every operation behind a single mutex.
package shardkeeper

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/commonerr"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/filestore"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/metrics"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/partition"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/reconciler"
)

// Keeper owns the store. All operations load the catalog, mutate the shard
// files, persist the catalog and reconcile under one critical section, so an
// observer only ever sees the state before or after a completed operation.
type Keeper struct {
	mu               sync.Mutex
	log              logrus.FieldLogger
	catalogs         catalog.Store
	files            filestore.Store
	reconciler       *reconciler.Reconciler
	operationSeconds *prometheus.HistogramVec
}

// Opt is an option for NewKeeper.
type Opt func(*Keeper)

// WithOperationSeconds makes the Keeper observe operation durations on the
// given histogram instead of an unregistered default.
func WithOperationSeconds(histogram *prometheus.HistogramVec) Opt {
	return func(k *Keeper) { k.operationSeconds = histogram }
}

// NewKeeper returns a Keeper operating on the given catalog and file stores.
func NewKeeper(log logrus.FieldLogger, catalogs catalog.Store, files filestore.Store, rec *reconciler.Reconciler, opts ...Opt) *Keeper {
	k := &Keeper{
		log:              log.WithField("component", "keeper"),
		catalogs:         catalogs,
		files:            files,
		reconciler:       rec,
		operationSeconds: metrics.NewOperationSeconds(nil),
	}

	for _, opt := range opts {
		opt(k)
	}

	return k
}

// ShardInfo describes one catalog entry and whether its file is physically
// present.
type ShardInfo struct {
	Key     catalog.Key
	Range   catalog.Range
	Present bool
}

// instrument observes the duration of the named operation once the returned
// function is called.
func (k *Keeper) instrument(operation string) func() {
	timer := prometheus.NewTimer(k.operationSeconds.WithLabelValues(operation))
	return func() { timer.ObserveDuration() }
}

// opLogger returns a logger carrying the operation name and a fresh
// correlation ID.
func (k *Keeper) opLogger(operation string) logrus.FieldLogger {
	return k.log.WithFields(logrus.Fields{
		"operation":      operation,
		"correlation_id": uuid.New().String(),
	})
}

// Build initializes the store by splitting the corpus into shardCount
// contiguous shards and writing one primary file per shard. The store must
// not be initialized yet; the initial replication level is 0.
func (k *Keeper) Build(ctx context.Context, shardCount int, corpus []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	defer k.instrument("build")()
	log := k.opLogger("build")

	cat, err := k.catalogs.Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	if len(cat) > 0 {
		return commonerr.ErrAlreadyInitialized
	}

	segments, err := partition.Split(corpus, shardCount)
	if err != nil {
		return err
	}

	cat = catalog.Catalog{}
	for id, rng := range partition.Ranges(segments) {
		key := catalog.NewPrimary(id)
		if err := k.files.Write(ctx, key, segments[id]); err != nil {
			return fmt.Errorf("write shard %s: %w", key, err)
		}
		cat[key] = rng
	}

	if err := k.catalogs.Save(ctx, cat); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}

	log.WithFields(logrus.Fields{
		"shards":       shardCount,
		"corpus_bytes": len(corpus),
	}).Info("store built")

	return nil
}

// AddShard repartitions the corpus over one more shard and returns the new
// shard count.
func (k *Keeper) AddShard(ctx context.Context) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	defer k.instrument("add-shard")()

	return k.resizeShards(ctx, k.opLogger("add-shard"), +1)
}

// RemoveShard repartitions the corpus over one shard less and returns the new
// shard count. The last remaining shard can not be removed.
func (k *Keeper) RemoveShard(ctx context.Context) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	defer k.instrument("remove-shard")()

	return k.resizeShards(ctx, k.opLogger("remove-shard"), -1)
}

func (k *Keeper) resizeShards(ctx context.Context, log logrus.FieldLogger, delta int) (int, error) {
	cat, err := k.catalogs.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	ids := cat.PrimaryIDs()
	if len(ids) == 0 {
		return 0, commonerr.ErrNotInitialized
	}

	newCount := len(ids) + delta
	if newCount < 1 {
		return 0, commonerr.ErrLastShard
	}

	if err := k.repartition(ctx, cat, newCount); err != nil {
		return 0, err
	}

	// Replica files of the surviving shards still hold the old partitioning
	// at this point; reconciliation rewrites them and tops up the replicas
	// of a newly added shard.
	if _, err := k.reconciler.Reconcile(ctx); err != nil {
		return 0, fmt.Errorf("reconcile after repartition: %w", err)
	}

	log.WithField("shards", newCount).Info("shard count changed")

	return newCount, nil
}

// repartition reassembles the corpus from the primaries, splits it over
// newCount shards and rewrites the primary files and the catalog. Replica
// entries of surviving shards are carried over, mirroring the new ranges;
// keys of vanished shards lose their files and entries.
func (k *Keeper) repartition(ctx context.Context, cat catalog.Catalog, newCount int) error {
	corpus, err := k.assembleCorpus(ctx, cat)
	if err != nil {
		return err
	}

	segments, err := partition.Split(corpus, newCount)
	if err != nil {
		return err
	}
	ranges := partition.Ranges(segments)

	next := catalog.Catalog{}
	for id := 0; id < newCount; id++ {
		key := catalog.NewPrimary(id)
		if err := k.files.Write(ctx, key, segments[id]); err != nil {
			return fmt.Errorf("write shard %s: %w", key, err)
		}
		next[key] = ranges[id]
	}

	for _, key := range cat.ReplicaKeys() {
		if key.ID < newCount {
			next[key] = ranges[key.ID]
		}
	}

	for _, key := range cat.Keys() {
		if _, ok := next[key]; ok {
			continue
		}
		if err := k.files.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete shard %s: %w", key, err)
		}
	}

	if err := k.catalogs.Save(ctx, next); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}

	return nil
}

// assembleCorpus concatenates the primary files in shard ID order.
func (k *Keeper) assembleCorpus(ctx context.Context, cat catalog.Catalog) ([]byte, error) {
	var corpus []byte
	for _, id := range cat.PrimaryIDs() {
		key := catalog.NewPrimary(id)
		content, err := k.files.Read(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read shard %s: %w", key, err)
		}
		corpus = append(corpus, content...)
	}
	return corpus, nil
}

// AddReplication raises the uniform replication level by one: every primary
// gets a new replica holding a copy of its content. Returns the new level.
func (k *Keeper) AddReplication(ctx context.Context) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	defer k.instrument("add-replica")()
	log := k.opLogger("add-replica")

	cat, err := k.catalogs.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	ids := cat.PrimaryIDs()
	if len(ids) == 0 {
		return 0, commonerr.ErrNotInitialized
	}

	level := cat.ReplicationLevel() + 1

	for _, id := range ids {
		primary := catalog.NewPrimary(id)
		content, err := k.files.Read(ctx, primary)
		if err != nil {
			return 0, fmt.Errorf("read shard %s: %w", primary, err)
		}

		replica := catalog.NewReplica(id, level)
		if err := k.files.Write(ctx, replica, content); err != nil {
			return 0, fmt.Errorf("write replica %s: %w", replica, err)
		}
		cat[replica] = cat[primary]
	}

	if err := k.catalogs.Save(ctx, cat); err != nil {
		return 0, fmt.Errorf("save catalog: %w", err)
	}

	if _, err := k.reconciler.Reconcile(ctx); err != nil {
		return 0, fmt.Errorf("reconcile after replication change: %w", err)
	}

	log.WithField("replication_level", level).Info("replication level raised")

	return level, nil
}

// RemoveReplication lowers the uniform replication level by one: every
// primary loses its highest-indexed replica. Returns the new level.
func (k *Keeper) RemoveReplication(ctx context.Context) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	defer k.instrument("remove-replica")()
	log := k.opLogger("remove-replica")

	cat, err := k.catalogs.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	ids := cat.PrimaryIDs()
	if len(ids) == 0 {
		return 0, commonerr.ErrNotInitialized
	}

	level := cat.ReplicationLevel()
	if level == 0 {
		return 0, commonerr.ErrNoReplicas
	}

	for _, id := range ids {
		key := catalog.NewReplica(id, level)
		delete(cat, key)
		if err := k.files.Delete(ctx, key); err != nil {
			return 0, fmt.Errorf("delete replica %s: %w", key, err)
		}
	}

	if err := k.catalogs.Save(ctx, cat); err != nil {
		return 0, fmt.Errorf("save catalog: %w", err)
	}

	if _, err := k.reconciler.Reconcile(ctx); err != nil {
		return 0, fmt.Errorf("reconcile after replication change: %w", err)
	}

	log.WithField("replication_level", level-1).Info("replication level lowered")

	return level - 1, nil
}

// Sync runs a single reconciliation pass under the Keeper's mutex.
func (k *Keeper) Sync(ctx context.Context) (reconciler.Result, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	defer k.instrument("sync")()
	log := k.opLogger("sync")

	result, err := k.reconciler.Reconcile(ctx)
	if err != nil {
		return result, err
	}

	log.Info("sync completed")

	return result, nil
}

// GetShard returns the info of a single shard key.
func (k *Keeper) GetShard(ctx context.Context, key catalog.Key) (ShardInfo, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	defer k.instrument("get-shard")()

	cat, err := k.catalogs.Load(ctx)
	if err != nil {
		return ShardInfo{}, fmt.Errorf("load catalog: %w", err)
	}

	rng, ok := cat[key]
	if !ok {
		return ShardInfo{}, commonerr.NewShardNotFoundError(key, cat)
	}

	present, err := k.files.Exists(ctx, key)
	if err != nil {
		return ShardInfo{}, fmt.Errorf("stat shard %s: %w", key, err)
	}

	return ShardInfo{Key: key, Range: rng, Present: present}, nil
}

// ListShards returns the info of every catalog entry, key-sorted.
func (k *Keeper) ListShards(ctx context.Context) ([]ShardInfo, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	defer k.instrument("list-shards")()

	cat, err := k.catalogs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	infos := make([]ShardInfo, 0, len(cat))
	for _, key := range cat.Keys() {
		present, err := k.files.Exists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("stat shard %s: %w", key, err)
		}
		infos = append(infos, ShardInfo{Key: key, Range: cat[key], Present: present})
	}

	return infos, nil
}

// PrimaryIDs returns the sorted shard IDs of the catalog's primaries.
func (k *Keeper) PrimaryIDs(ctx context.Context) ([]int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cat, err := k.catalogs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return cat.PrimaryIDs(), nil
}

// ReplicaKeys returns the sorted replica keys of the catalog.
func (k *Keeper) ReplicaKeys(ctx context.Context) ([]catalog.Key, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cat, err := k.catalogs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return cat.ReplicaKeys(), nil
}
