package filestore

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
)

// CachingStore is a Store decorator keeping the most recently read shard
// contents in an LRU cache. Writes and deletes go through to the backing
// store and keep the cache coherent, so it is safe for the single-writer
// model the keeper enforces.
type CachingStore struct {
	store            Store
	cache            *lru.Cache
	cacheAccessTotal *prometheus.CounterVec
}

// NewCachingStore wraps store with an LRU cache holding up to capacity shard
// contents.
func NewCachingStore(store Store, capacity int) (*CachingStore, error) {
	cached := &CachingStore{
		store: store,
		cacheAccessTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkeeper_shard_cache_access_total",
				Help: "Total number of shard cache access operations of the caching file store.",
			},
			[]string{"type"},
		),
	}

	cache, err := lru.NewWithEvict(capacity, func(key interface{}, value interface{}) {
		cached.cacheAccessTotal.WithLabelValues("evict").Inc()
	})
	if err != nil {
		return nil, err
	}
	cached.cache = cache

	return cached, nil
}

var (
	_ Store                = (*CachingStore)(nil)
	_ prometheus.Collector = (*CachingStore)(nil)
)

// Read implements Store, serving repeated reads from the cache.
func (cs *CachingStore) Read(ctx context.Context, key catalog.Key) ([]byte, error) {
	if value, found := cs.cache.Get(key); found {
		cs.cacheAccessTotal.WithLabelValues("hit").Inc()
		return append([]byte(nil), value.([]byte)...), nil
	}
	cs.cacheAccessTotal.WithLabelValues("miss").Inc()

	content, err := cs.store.Read(ctx, key)
	if err != nil {
		return nil, err
	}

	cs.cache.Add(key, append([]byte(nil), content...))
	cs.cacheAccessTotal.WithLabelValues("populate").Inc()

	return content, nil
}

// Write implements Store, updating the cached content on success.
func (cs *CachingStore) Write(ctx context.Context, key catalog.Key, data []byte) error {
	if err := cs.store.Write(ctx, key, data); err != nil {
		return err
	}

	cs.cache.Add(key, append([]byte(nil), data...))
	return nil
}

// Delete implements Store, invalidating the cached content.
func (cs *CachingStore) Delete(ctx context.Context, key catalog.Key) error {
	if err := cs.store.Delete(ctx, key); err != nil {
		return err
	}

	cs.cache.Remove(key)
	return nil
}

// Exists implements Store. A cached shard is present by contract, everything
// else is delegated.
func (cs *CachingStore) Exists(ctx context.Context, key catalog.Key) (bool, error) {
	if cs.cache.Contains(key) {
		return true, nil
	}
	return cs.store.Exists(ctx, key)
}

// List implements Store.
func (cs *CachingStore) List(ctx context.Context) ([]catalog.Key, error) {
	return cs.store.List(ctx)
}

// Describe returns all metric descriptors.
func (cs *CachingStore) Describe(descs chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(cs, descs)
}

// Collect collects all metrics.
func (cs *CachingStore) Collect(collector chan<- prometheus.Metric) {
	cs.cacheAccessTotal.Collect(collector)
}
