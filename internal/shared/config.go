package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Cache    CacheConfig    `toml:"cache"`
	Provider ProviderConfig `toml:"provider"`
	Search   SearchConfig   `toml:"search"`
	Queue    QueueConfig    `toml:"queue"`
	Dedup    DedupConfig    `toml:"dedup"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                   string `toml:"host"`
	Port                   int    `toml:"port"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// Addr returns host:port for [http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level string `toml:"level"`
}

// CacheConfig controls the stream resolution cache.
//
// An empty RedisURL keeps everything in process.
type CacheConfig struct {
	RedisURL            string `toml:"redis_url"`
	RedisTimeoutMs      int    `toml:"redis_timeout_ms"`
	TTLSeconds          int    `toml:"ttl_seconds"`
	Capacity            int    `toml:"capacity"`
	EvictBatch          int    `toml:"evict_batch"`
	KeyPrefix           string `toml:"key_prefix"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
}

func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

func (c CacheConfig) RedisTimeout() time.Duration {
	return time.Duration(c.RedisTimeoutMs) * time.Millisecond
}

func (c CacheConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// ProviderConfig selects and tunes the content provider backends.
type ProviderConfig struct {
	SearchBackend  string  `toml:"search_backend"` // ytdlp, ytmusic, ytsearch, proxy
	StreamBackend  string  `toml:"stream_backend"` // ytdlp, proxy
	ProxyURL       string  `toml:"proxy_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second
	Burst          int     `toml:"burst"`
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// SearchConfig tunes the search pipeline.
type SearchConfig struct {
	Window       int `toml:"window"`
	Oversample   int `toml:"oversample"`
	Threshold    int `toml:"threshold"`
	DefaultLimit int `toml:"default_limit"`
	MaxLimit     int `toml:"max_limit"`
}

// QueueConfig tunes the "up next" queue generator.
type QueueConfig struct {
	Window          int    `toml:"window"`
	ArtistCap       int    `toml:"artist_cap"`
	Modifier        string `toml:"modifier"`
	DefaultLimit    int    `toml:"default_limit"`
	MaxLimit        int    `toml:"max_limit"`
	HistoryLimit    int    `toml:"history_limit"`
	Prefetch        int    `toml:"prefetch"`
	PrefetchWorkers int    `toml:"prefetch_workers"`
}

type DedupConfig struct {
	WindowSeconds int `toml:"window_seconds"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values from environment variables.
//
// REDIS_URL is honored for compatibility with existing deployments; NEXTUP_REDIS_URL wins when both are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := getenv("NEXTUP_REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := getenv("NEXTUP_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := getenv("NEXTUP_PROXY_URL"); v != "" {
		c.Provider.ProxyURL = v
	}
	if v := getenv("NEXTUP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects values that would make the pipelines misbehave.
func (c *Config) Validate() error {
	var problems []string
	positive := map[string]int{
		"cache.ttl_seconds":           c.Cache.TTLSeconds,
		"cache.capacity":              c.Cache.Capacity,
		"cache.evict_batch":           c.Cache.EvictBatch,
		"cache.fetch_timeout_seconds": c.Cache.FetchTimeoutSeconds,
		"provider.timeout_seconds":    c.Provider.TimeoutSeconds,
		"search.window":               c.Search.Window,
		"search.oversample":           c.Search.Oversample,
		"search.default_limit":        c.Search.DefaultLimit,
		"search.max_limit":            c.Search.MaxLimit,
		"queue.window":                c.Queue.Window,
		"queue.artist_cap":            c.Queue.ArtistCap,
		"queue.default_limit":         c.Queue.DefaultLimit,
		"queue.max_limit":             c.Queue.MaxLimit,
	}
	for name, v := range positive {
		if v <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive (got %d)", name, v))
		}
	}

	if c.Dedup.WindowSeconds < 0 {
		problems = append(problems, "dedup.window_seconds must not be negative")
	}
	if c.Cache.EvictBatch > c.Cache.Capacity {
		problems = append(problems, "cache.evict_batch must not exceed cache.capacity")
	}

	switch c.Provider.SearchBackend {
	case "ytdlp", "ytmusic", "ytsearch", "proxy":
	default:
		problems = append(problems, fmt.Sprintf("unknown provider.search_backend %q", c.Provider.SearchBackend))
	}
	switch c.Provider.StreamBackend {
	case "ytdlp", "proxy":
	default:
		problems = append(problems, fmt.Sprintf("unknown provider.stream_backend %q", c.Provider.StreamBackend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
