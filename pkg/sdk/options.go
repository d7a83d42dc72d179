package rollup

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Engine.
type Option interface {
	apply(*engineConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*engineConfig)

func (f optionFunc) apply(c *engineConfig) { f(c) }

type engineConfig struct {
	native ListBackend
	remote ListBackend
	search SearchBackend

	currentSite   string
	contentTypeID string

	// kv wins over driver when both are set.
	kv       KVStore
	driver   string // "valkey" or "redis"
	addrs    []string
	password string
	redisURL string
	cacheTTL time.Duration

	audience AudienceOracle
	demo     bool
	epoch    time.Time

	concurrency int
	timeout     time.Duration
	maxItems    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithListBackends sets the list backends. native serves sources on the
// current site, remote serves every other site. Either may be nil.
func WithListBackends(native, remote ListBackend) Option {
	return optionFunc(func(c *engineConfig) {
		c.native = native
		c.remote = remote
	})
}

// WithCurrentSite sets the URL of the site the engine runs on.
func WithCurrentSite(url string) Option {
	return optionFunc(func(c *engineConfig) {
		c.currentSite = url
	})
}

// WithContentType sets the content-type id used by sources that carry none.
func WithContentType(id string) Option {
	return optionFunc(func(c *engineConfig) {
		c.contentTypeID = id
	})
}

// WithSearchBackend sets the federated search backend.
func WithSearchBackend(b SearchBackend) Option {
	return optionFunc(func(c *engineConfig) {
		c.search = b
	})
}

// WithKVStore caches merged fetch results in s.
func WithKVStore(s KVStore) Option {
	return optionFunc(func(c *engineConfig) {
		c.kv = s
	})
}

// WithValkey caches merged fetch results in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *engineConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis caches merged fetch results in Redis, addressed by a redis:// URL.
func WithRedis(url string) Option {
	return optionFunc(func(c *engineConfig) {
		c.driver = "redis"
		c.redisURL = url
	})
}

// WithCacheTTL sets how long merged results stay cached. Default: 5 minutes.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *engineConfig) {
		c.cacheTTL = ttl
	})
}

// WithAudience drops items whose audience groups the oracle denies.
func WithAudience(o AudienceOracle) Option {
	return optionFunc(func(c *engineConfig) {
		c.audience = o
	})
}

// WithDemo replaces every backend with a deterministic sample set.
func WithDemo() Option {
	return optionFunc(func(c *engineConfig) {
		c.demo = true
	})
}

// WithDemoEpoch anchors sample dates at t. Implies WithDemo.
func WithDemoEpoch(t time.Time) Option {
	return optionFunc(func(c *engineConfig) {
		c.demo = true
		c.epoch = t
	})
}

// WithConcurrency caps concurrent source fetches. Default: 8.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *engineConfig) {
		c.concurrency = n
	})
}

// WithFetchTimeout bounds every single source fetch. Default: 15s.
func WithFetchTimeout(d time.Duration) Option {
	return optionFunc(func(c *engineConfig) {
		c.timeout = d
	})
}

// WithMaxItemsPerSource caps the items requested from every source. Default: 500.
func WithMaxItemsPerSource(n int) Option {
	return optionFunc(func(c *engineConfig) {
		c.maxItems = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *engineConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *engineConfig) {
		c.metricsReg = reg
	})
}
