package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/rollup/internal/domain"
	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultConcurrency = 8
	DefaultTimeout     = 15 * time.Second
	DefaultCacheTTL    = 5 * time.Minute
)

// Fetchers routes sources to a strategy by kind. Nil strategies skip their sources.
type Fetchers struct {
	List   Fetcher
	Search Fetcher
}

// Config holds fetch orchestration parameters.
type Config struct {
	Concurrency int
	// Timeout bounds every single source fetch.
	Timeout   time.Duration
	CacheTTL  time.Duration
	KeyPrefix string

	// FetchDuration (label "kind") and MergedItems are optional.
	FetchDuration *prometheus.HistogramVec
	MergedItems   prometheus.Observer
}

// Request describes one fetch cycle.
type Request struct {
	Sources []source.Source
	Query   query.Query
	Page    int
	// Limit caps the items requested from every source.
	Limit int
	// Refresh bypasses the cache for this cycle.
	Refresh bool
}

// Result is the merged, deduplicated, recency-sorted item set of a cycle.
type Result struct {
	Items     []item.Item
	Total     int
	FromCache bool
	CycleID   string
}

// Service fans fetches out over the enabled sources, merges the results and
// keeps them in the cache.
type Service struct {
	fetchers Fetchers
	cache    Cache
	cfg      Config
	bypass   atomic.Bool
	logger   *zap.Logger
}

// New creates a fetch service. cache may be nil.
func New(fetchers Fetchers, cache Cache, cfg Config, logger *zap.Logger) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = domain.KeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fetchers: fetchers, cache: cache, cfg: cfg, logger: logger}
}

// RequestRefresh makes the next Fetch skip the cache lookup once.
func (s *Service) RequestRefresh() {
	s.bypass.Store(true)
}

// Fetch runs one cycle. It never fails: sources that error contribute nothing.
func (s *Service) Fetch(ctx context.Context, req Request) Result {
	start := time.Now()
	cycleID := uuid.NewString()
	log := s.logger.With(zap.String("cycle_id", cycleID))

	enabled := source.Enabled(req.Sources)
	key := s.CacheKey(enabled, req.Query, req.Limit, req.Page)

	// A request carrying its own bypass leaves a pending manual refresh armed.
	bypass := req.Refresh || s.bypass.Swap(false)
	if s.cache != nil {
		if bypass {
			s.cache.Bypass()
		} else if items, ok := s.cache.Get(ctx, key); ok {
			log.Debug("Fetch served from cache", zap.Int("items", len(items)))
			return Result{Items: items, Total: len(items), FromCache: true, CycleID: cycleID}
		}
	}

	results := make([][]item.Item, len(enabled))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, src := range enabled {
		g.Go(func() error {
			results[i] = s.fetchOne(ctx, log, src, req.Query, req.Limit)
			return nil
		})
	}
	_ = g.Wait()

	items := MergeDedupSort(results...)
	if s.cfg.MergedItems != nil {
		s.cfg.MergedItems.Observe(float64(len(items)))
	}

	if s.cache != nil && len(items) > 0 {
		s.cache.Set(ctx, key, items, s.cfg.CacheTTL)
	}

	log.Debug("Fetch cycle completed",
		zap.Int("sources", len(enabled)),
		zap.Int("items", len(items)),
		zap.Bool("bypass", bypass),
		zap.Duration("duration", time.Since(start)))

	return Result{Items: items, Total: len(items), CycleID: cycleID}
}

func (s *Service) fetchOne(ctx context.Context, log *zap.Logger, src source.Source, q query.Query, limit int) (items []item.Item) {
	kind := string(src.Kind)
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Source fetch panicked", zap.String("source_id", src.ID), zap.String("kind", kind), zap.Any("panic", r))
			items = nil
		}
	}()

	var f Fetcher
	switch {
	case src.Kind.IsList():
		f = s.fetchers.List
	case src.Kind.IsSearch():
		f = s.fetchers.Search
	default:
		log.Warn("Unknown source kind", zap.String("source_id", src.ID), zap.String("kind", kind))
		return nil
	}
	if f == nil {
		log.Warn("No fetcher for source kind", zap.String("source_id", src.ID), zap.String("kind", kind))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	items = f.Fetch(ctx, src, q, limit)
	if s.cfg.FetchDuration != nil {
		s.cfg.FetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
	return items
}

type keyDTO struct {
	Sources  string `json:"sources"`
	FullText string `json:"fullText"`
	Filter   string `json:"filter"`
	Limit    int    `json:"limit"`
}

// CacheKey derives the cache key from the canonical signature of the enabled
// sources, the compiled query and the limit, suffixed with the page number.
func (s *Service) CacheKey(sources []source.Source, q query.Query, limit, page int) string {
	if page < 1 {
		page = 1
	}
	c := query.Compile(q)
	data, _ := json.Marshal(keyDTO{
		Sources:  source.Signature(sources),
		FullText: c.FullText,
		Filter:   c.Filter,
		Limit:    limit,
	})
	h := sha256.Sum256(data)
	return s.cfg.KeyPrefix + "items:" + hex.EncodeToString(h[:]) + ":p" + strconv.Itoa(page)
}
