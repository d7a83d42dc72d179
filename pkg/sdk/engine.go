package rollup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/db"
	dbRedis "github.com/kailas-cloud/rollup/internal/db/redis"
	dbValkey "github.com/kailas-cloud/rollup/internal/db/valkey"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/repository/demosource"
	"github.com/kailas-cloud/rollup/internal/repository/itemcache"
	"github.com/kailas-cloud/rollup/internal/repository/listsource"
	"github.com/kailas-cloud/rollup/internal/repository/searchsource"
	"github.com/kailas-cloud/rollup/internal/settings"
	"github.com/kailas-cloud/rollup/internal/usecase/fetch"
	healthuc "github.com/kailas-cloud/rollup/internal/usecase/health"
	"github.com/kailas-cloud/rollup/internal/usecase/render"
	rollupuc "github.com/kailas-cloud/rollup/internal/usecase/rollup"
)

const defaultReadinessTimeout = 10 * time.Second

// rollupUseCase is the pipeline as the Engine sees it.
type rollupUseCase interface {
	Run(ctx context.Context, in rollupuc.Input) rollupuc.Output
	Refresh()
}

// Engine is the rollup SDK entry point. It is safe for concurrent use.
type Engine struct {
	svc       rollupUseCase
	parser    *settings.Parser
	healthSvc healthUseCase
	store     db.Store
	obs       *observer
}

// New creates an Engine. At least one backend or WithDemo is required.
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if !cfg.demo && cfg.native == nil && cfg.remote == nil && cfg.search == nil {
		return nil, errors.New("rollup: no backend configured (use WithListBackends, WithSearchBackend or WithDemo)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if cfg.kv == nil && cfg.driver != "" {
		store, err = createStore(cfg)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), defaultReadinessTimeout)
		defer cancel()
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("rollup: cache store not ready: %w", err)
		}
	}

	return wireEngine(cfg, store, obs), nil
}

func createStore(cfg *engineConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey":
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("rollup: create valkey store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(cfg.redisURL)
		if err != nil {
			return nil, fmt.Errorf("rollup: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("rollup: unknown driver %q", cfg.driver)
	}
}

func wireEngine(cfg *engineConfig, store db.Store, obs *observer) *Engine {
	// Internal services log nothing; SDK operations are observed through slog.
	nop := zap.NewNop()

	var kv KVStore = cfg.kv
	if kv == nil && store != nil {
		kv = store
	}
	var cache fetch.Cache
	if kv != nil {
		cache = itemcache.New(kv, nil, nop)
	}

	var fetchers fetch.Fetchers
	if cfg.demo {
		demo := demosource.New(cfg.epoch)
		fetchers = fetch.Fetchers{List: demo, Search: demo}
	} else {
		if cfg.native != nil || cfg.remote != nil {
			fetchers.List = listsource.New(cfg.native, cfg.remote, listsource.Config{
				CurrentSiteURL: cfg.currentSite,
				ContentTypeID:  cfg.contentTypeID,
			}, nil, nop)
		}
		if cfg.search != nil {
			fetchers.Search = searchsource.New(cfg.search, searchsource.Config{
				CurrentSiteURL: cfg.currentSite,
				ContentTypeID:  cfg.contentTypeID,
			}, nil, nop)
		}
	}

	fetchSvc := fetch.New(fetchers, cache, fetch.Config{
		Concurrency: cfg.concurrency,
		Timeout:     cfg.timeout,
		CacheTTL:    cfg.cacheTTL,
	}, nop)

	// Pass nil interface (not typed nil pointer!) when no oracle is set.
	var oracle rollupuc.AudienceOracle
	if cfg.audience != nil {
		oracle = cfg.audience
	}

	renderer := render.NewCoordinator(render.New(render.Config{Logger: nop}))
	svc := rollupuc.New(fetchSvc, oracle, renderer, nop).WithMaxItemsPerSource(cfg.maxItems)

	return &Engine{
		svc:       svc,
		parser:    settings.New(nop),
		healthSvc: healthuc.New(pingerOf(kv), listPinger(cfg), pingerOf(cfg.search)),
		store:     store,
		obs:       obs,
	}
}

// pingerOf returns v as a health pinger, or a nil interface when v cannot ping.
func pingerOf(v any) healthuc.Pinger {
	if p, ok := v.(healthuc.Pinger); ok {
		return p
	}
	return nil
}

func listPinger(cfg *engineConfig) healthuc.Pinger {
	if p := pingerOf(cfg.native); p != nil {
		return p
	}
	return pingerOf(cfg.remote)
}

// Close releases the cache connection opened by WithValkey or WithRedis.
func (e *Engine) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// Parse decodes JSON configuration members. It never fails: unusable members
// fall back to their defaults.
func (e *Engine) Parse(raw Raw) Parsed {
	return e.parser.Parse(raw)
}

// Run executes one fetch-and-present cycle. Template failures are reported on
// Output.RenderError; the other fields stay populated.
func (e *Engine) Run(ctx context.Context, in Input) Output {
	start := time.Now()
	out := e.svc.Run(ctx, in)
	e.obs.observe("run", start, out.RenderError,
		"cycle_id", out.CycleID,
		"items", len(out.Items),
		"from_cache", out.FromCache,
	)
	return out
}

// Refresh makes the next Run bypass the result cache once.
func (e *Engine) Refresh() {
	start := time.Now()
	e.svc.Refresh()
	e.obs.observe("refresh", start, nil)
}

// Compile returns the full-text and filter forms of q.
func (e *Engine) Compile(q Query) Compiled {
	return query.Compile(q)
}
