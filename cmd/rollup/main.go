package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/config"
	"github.com/kailas-cloud/rollup/internal/db"
	dbElastic "github.com/kailas-cloud/rollup/internal/db/elastic"
	dbMeili "github.com/kailas-cloud/rollup/internal/db/meili"
	dbMemory "github.com/kailas-cloud/rollup/internal/db/memory"
	dbPostgres "github.com/kailas-cloud/rollup/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/rollup/internal/db/redis"
	dbValkey "github.com/kailas-cloud/rollup/internal/db/valkey"
	dompage "github.com/kailas-cloud/rollup/internal/domain/pagination"
	logpkg "github.com/kailas-cloud/rollup/internal/logger"
	"github.com/kailas-cloud/rollup/internal/metrics"
	"github.com/kailas-cloud/rollup/internal/repository/audience"
	"github.com/kailas-cloud/rollup/internal/repository/demosource"
	"github.com/kailas-cloud/rollup/internal/repository/itemcache"
	"github.com/kailas-cloud/rollup/internal/repository/listsource"
	"github.com/kailas-cloud/rollup/internal/repository/searchsource"
	"github.com/kailas-cloud/rollup/internal/settings"
	chiTransport "github.com/kailas-cloud/rollup/internal/transport/chi"
	"github.com/kailas-cloud/rollup/internal/transport/listrest"
	"github.com/kailas-cloud/rollup/internal/usecase/fetch"
	healthuc "github.com/kailas-cloud/rollup/internal/usecase/health"
	"github.com/kailas-cloud/rollup/internal/usecase/render"
	rollupuc "github.com/kailas-cloud/rollup/internal/usecase/rollup"
	"github.com/kailas-cloud/rollup/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rollup API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("mode", cfg.Mode),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("list_driver", cfg.List.Driver),
		zap.String("search_driver", cfg.Search.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	metrics.RegisterRollupMetrics()
	ctx := context.Background()

	// Item cache
	var cache fetch.Cache
	var cachePinger healthuc.Pinger
	if cfg.Cache.Enabled {
		store, err := openCacheStore(cfg.Cache)
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.String("driver", cfg.Cache.Driver))
		cache = itemcache.New(store, metrics.CacheTotal, logger)
		cachePinger = store
	}

	// Source strategies
	var src backends
	if cfg.IsDemo() {
		demo := demosource.New(time.Time{})
		src.fetchers = fetch.Fetchers{List: demo, Search: demo}
		logger.Info("Demo mode: serving sample items, backends disabled")
	} else {
		src = buildBackends(ctx, cfg, logger)
		defer src.close()
	}

	fetchSvc := fetch.New(src.fetchers, cache, fetch.Config{
		Concurrency:   cfg.Engine.FetchConcurrency,
		Timeout:       time.Duration(cfg.Engine.FetchTimeoutSec) * time.Second,
		CacheTTL:      time.Duration(cfg.Cache.TTLSec) * time.Second,
		KeyPrefix:     cfg.Cache.KeyPrefix,
		FetchDuration: metrics.FetchDuration,
		MergedItems:   metrics.MergedItems,
	}, logger)

	// Pass nil interface (not typed nil pointer!) when no audience is configured.
	var oracle rollupuc.AudienceOracle
	if len(cfg.Audience.Groups) > 0 {
		oracle = audience.NewStatic(cfg.Audience.Groups)
	}

	renderer := render.NewCoordinator(render.New(render.Config{
		RenderErrors: metrics.RenderErrorsTotal,
		Logger:       logger,
	}))

	rollupSvc := rollupuc.New(fetchSvc, oracle, renderer, logger).
		WithMaxItemsPerSource(cfg.Engine.MaxItemsPerSource)

	var refresher *rollupuc.Refresher
	if cfg.Refresh.Enabled && !cfg.IsDemo() {
		refresher = rollupuc.NewRefresher(fetchSvc, time.Duration(cfg.Refresh.IntervalSec)*time.Second, logger)
		rollupSvc.WithRefresher(refresher)
		refresher.Start(ctx)
		defer refresher.Stop()
		logger.Info("Auto-refresh enabled", zap.Int("interval_sec", cfg.Refresh.IntervalSec))
	}

	healthSvc := healthuc.New(cachePinger, src.list, src.search)

	server := chiTransport.NewServer(rollupSvc, settings.New(logger), healthSvc, chiTransport.Defaults{
		PageSize:    cfg.Engine.DefaultPageSize,
		MaxPageSize: cfg.Engine.MaxPageSize,
		Pagination:  dompage.ParseMode(cfg.Engine.PaginationMode),
		Mode:        cfg.Mode,
	}, logger)
	router := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openCacheStore creates the key-value store behind the item cache.
func openCacheStore(cfg config.CacheConfig) (db.Store, error) {
	switch cfg.Driver {
	case "valkey":
		return dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case "redis":
		return dbRedis.NewStore(cfg.URL)
	case "memory":
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// backends holds the live source strategies and what health checks and
// shutdown need from them.
type backends struct {
	fetchers fetch.Fetchers
	// Pass nil interface (not typed nil pointer!) for absent components.
	list    healthuc.Pinger
	search  healthuc.Pinger
	closers []func()
}

func (b backends) close() {
	for _, c := range b.closers {
		c()
	}
}

// buildBackends wires the live list and search strategies. Unconfigured
// backends stay nil so their sources are skipped.
func buildBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) backends {
	var b backends

	remote := listrest.New(listrest.Config{
		Timeout: time.Duration(cfg.List.RemoteTimeoutSec) * time.Second,
		Token:   cfg.List.RemoteToken,
	})
	listCfg := listsource.Config{
		CurrentSiteURL: cfg.List.CurrentSiteURL,
		ContentTypeID:  cfg.Engine.ContentTypeDefault,
	}

	switch cfg.List.Driver {
	case "postgres":
		pg, err := dbPostgres.NewStore(ctx, cfg.List.DSN)
		if err != nil {
			logger.Fatal("Failed to connect list database", zap.Error(err))
		}
		b.list = pg
		b.closers = append(b.closers, pg.Close)
		b.fetchers.List = listsource.New(pg, remote, listCfg, metrics.FetchRequestsTotal, logger)
	default:
		// Cross-site sources still go through the REST path.
		b.fetchers.List = listsource.New(nil, remote, listCfg, metrics.FetchRequestsTotal, logger)
	}

	searchCfg := searchsource.Config{
		CurrentSiteURL: cfg.List.CurrentSiteURL,
		ContentTypeID:  cfg.Engine.ContentTypeDefault,
	}
	switch cfg.Search.Driver {
	case "elasticsearch":
		es, err := dbElastic.NewStore(dbElastic.Config{
			Addresses:  cfg.Search.Addrs,
			Index:      cfg.Search.Index,
			Username:   cfg.Search.Username,
			Password:   cfg.Search.Password,
			DedupField: cfg.Search.DedupField,
		})
		if err != nil {
			logger.Fatal("Failed to create Elasticsearch client", zap.Error(err))
		}
		b.search = es
		b.fetchers.Search = searchsource.New(es, searchCfg, metrics.FetchRequestsTotal, logger)
	case "meilisearch":
		ms, err := dbMeili.NewStore(dbMeili.Config{
			URL:    cfg.Search.Addrs[0],
			APIKey: cfg.Search.APIKey,
			Index:  cfg.Search.Index,
		})
		if err != nil {
			logger.Fatal("Failed to create Meilisearch client", zap.Error(err))
		}
		b.search = ms
		b.fetchers.Search = searchsource.New(ms, searchCfg, metrics.FetchRequestsTotal, logger)
	}

	return b
}
