package itemcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/db"
	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// store is the consumer interface for the item cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache keeps merged fetch results in a key-value store. Failures are logged
// and reported as misses; they never reach the caller.
type Cache struct {
	store      store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an item cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(s store, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:      s,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns the cached items for key. ok is false on a miss, a store error or
// an undecodable entry.
func (c *Cache) Get(ctx context.Context, key string) ([]item.Item, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.inc("miss")
		} else {
			c.inc("error")
			c.logger.Warn("Failed to get cached items", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		c.inc("miss")
		return nil, false
	}

	items, err := decode(data)
	if err != nil {
		c.inc("error")
		c.logger.Warn("Failed to parse cached items", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	c.inc("hit")
	return items, true
}

// Set stores items under key for ttl. Errors are logged only.
func (c *Cache) Set(ctx context.Context, key string, items []item.Item, ttl time.Duration) {
	data, err := encode(items)
	if err != nil {
		c.logger.Warn("Failed to encode items for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, ttl); err != nil {
		c.logger.Warn("Failed to cache items", zap.String("key", key), zap.Error(err))
	}
}

// Bypass records a deliberately skipped lookup (manual refresh).
func (c *Cache) Bypass() { c.inc("bypass") }

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func encode(items []item.Item) ([]byte, error) {
	entries := make([]itemDTO, len(items))
	for i, it := range items {
		entries[i] = toDTO(it)
	}
	data, err := json.Marshal(entryDTO{Version: entryVersion, Items: entries})
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]item.Item, error) {
	var e entryDTO
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	if e.Version != entryVersion {
		return nil, fmt.Errorf("cache entry version %d, want %d", e.Version, entryVersion)
	}
	items := make([]item.Item, len(e.Items))
	for i, d := range e.Items {
		items[i] = fromDTO(d)
	}
	return items, nil
}
