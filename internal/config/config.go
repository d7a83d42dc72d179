package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Run modes.
const (
	ModeLive = "live"
	ModeDemo = "demo"
)

// Config holds the rollup API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Mode     string         `yaml:"mode"` // live, demo (default: live)
	Engine   EngineConfig   `yaml:"engine"`
	Cache    CacheConfig    `yaml:"cache"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	List     ListConfig     `yaml:"list"`
	Search   SearchConfig   `yaml:"search"`
	Audience AudienceConfig `yaml:"audience"`
	Auth     AuthConfig     `yaml:"auth"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig holds fetch and pagination settings.
type EngineConfig struct {
	DefaultPageSize    int    `yaml:"default_page_size"`
	MaxPageSize        int    `yaml:"max_page_size"`
	PaginationMode     string `yaml:"pagination_mode"` // paged, infinite, loadMore
	MaxItemsPerSource  int    `yaml:"max_items_per_source"`
	FetchConcurrency   int    `yaml:"fetch_concurrency"`
	FetchTimeoutSec    int    `yaml:"fetch_timeout_sec"`
	ContentTypeDefault string `yaml:"content_type_default"`
}

// CacheConfig holds item cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Driver           string   `yaml:"driver"` // memory, valkey, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	URL              string   `yaml:"url"` // redis:// URL for the redis driver
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RefreshConfig holds auto-refresh settings.
type RefreshConfig struct {
	Enabled     bool `yaml:"enabled"`
	IntervalSec int  `yaml:"interval_sec"`
}

// ListConfig holds list backend settings.
type ListConfig struct {
	Driver           string `yaml:"driver"` // postgres, none (default: none)
	DSN              string `yaml:"dsn"`
	CurrentSiteURL   string `yaml:"current_site_url"`
	RemoteTimeoutSec int    `yaml:"remote_timeout_sec"`
	RemoteToken      string `yaml:"remote_token"`
}

// SearchConfig holds federated search backend settings.
type SearchConfig struct {
	Driver     string   `yaml:"driver"` // elasticsearch, meilisearch, none (default: none)
	Addrs      []string `yaml:"addrs"`
	Index      string   `yaml:"index"`
	APIKey     string   `yaml:"api_key"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	DedupField string   `yaml:"dedup_field"`
}

// AudienceConfig lists the audience groups the service principal belongs to.
type AudienceConfig struct {
	Groups []string `yaml:"groups"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// IsDemo reports whether the service runs without backends.
func (c *Config) IsDemo() bool { return c.Mode == ModeDemo }

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Mode == "" {
		c.Mode = ModeLive
	}
	if c.Engine.DefaultPageSize <= 0 {
		c.Engine.DefaultPageSize = 20
	}
	if c.Engine.MaxPageSize <= 0 {
		c.Engine.MaxPageSize = 200
	}
	if c.Engine.PaginationMode == "" {
		c.Engine.PaginationMode = "paged"
	}
	if c.Engine.MaxItemsPerSource <= 0 {
		c.Engine.MaxItemsPerSource = 500
	}
	if c.Engine.FetchConcurrency <= 0 {
		c.Engine.FetchConcurrency = 8
	}
	if c.Engine.FetchTimeoutSec <= 0 {
		c.Engine.FetchTimeoutSec = 15
	}
	if c.Engine.ContentTypeDefault == "" {
		c.Engine.ContentTypeDefault = "0x01"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "rollup:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Refresh.IntervalSec <= 0 {
		c.Refresh.IntervalSec = 300
	}
	if c.List.Driver == "" {
		c.List.Driver = "none"
	}
	if c.List.RemoteTimeoutSec <= 0 {
		c.List.RemoteTimeoutSec = 15
	}
	if c.Search.Driver == "" {
		c.Search.Driver = "none"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Mode {
	case ModeLive, ModeDemo:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeLive, ModeDemo, c.Mode)
	}
	switch c.Engine.PaginationMode {
	case "paged", "infinite", "loadMore":
	default:
		return fmt.Errorf("engine.pagination_mode must be paged, infinite or loadMore, got %q", c.Engine.PaginationMode)
	}
	if c.Engine.DefaultPageSize > c.Engine.MaxPageSize {
		return fmt.Errorf("engine.default_page_size (%d) exceeds engine.max_page_size (%d)",
			c.Engine.DefaultPageSize, c.Engine.MaxPageSize)
	}
	if c.Cache.Enabled {
		switch c.Cache.Driver {
		case "memory":
		case "valkey":
			if len(c.Cache.Addrs) == 0 {
				return fmt.Errorf("cache.addrs is required for the valkey driver")
			}
		case "redis":
			if c.Cache.URL == "" {
				return fmt.Errorf("cache.url is required for the redis driver")
			}
		default:
			return fmt.Errorf("cache.driver must be memory, valkey or redis, got %q", c.Cache.Driver)
		}
	}
	if c.IsDemo() {
		return nil
	}
	switch c.List.Driver {
	case "none":
	case "postgres":
		if c.List.DSN == "" {
			return fmt.Errorf("list.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("list.driver must be postgres or none, got %q", c.List.Driver)
	}
	switch c.Search.Driver {
	case "none":
	case "elasticsearch", "meilisearch":
		if len(c.Search.Addrs) == 0 || c.Search.Index == "" {
			return fmt.Errorf("search.addrs and search.index are required for the %s driver", c.Search.Driver)
		}
	default:
		return fmt.Errorf("search.driver must be elasticsearch, meilisearch or none, got %q", c.Search.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
