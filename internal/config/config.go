package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Embed    EmbedConfig    `yaml:"embed"`
	Media    MediaConfig    `yaml:"media"`
	Events   EventsConfig   `yaml:"events"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT" default:"8493"`
	PublicBase   string        `yaml:"public_base" envconfig:"PUBLIC_BASE" default:"https://reddex.app"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
}

// UpstreamConfig holds Reddit and enrichment fetch configuration.
type UpstreamConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"UPSTREAM_BASE_URL" default:"https://www.reddit.com"`
	// FetchTimeout bounds the primary post fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"UPSTREAM_FETCH_TIMEOUT" default:"2s"`
	// ResolveTimeout bounds media-handle refresh fetches, which are heavier
	// than ordinary post fetches.
	ResolveTimeout    time.Duration `yaml:"resolve_timeout" envconfig:"UPSTREAM_RESOLVE_TIMEOUT" default:"5s"`
	UserAgent         string        `yaml:"user_agent" envconfig:"UPSTREAM_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	StreamResolverURL string        `yaml:"stream_resolver_url" envconfig:"STREAM_RESOLVER_URL" default:"https://api.cobalt.tools/api/json"`
}

// EmbedConfig holds embed compilation policy.
type EmbedConfig struct {
	// AncestorOrigins is the frame-ancestors allow-list appended to clip
	// player URLs as repeated parent parameters.
	AncestorOrigins []string `yaml:"ancestor_origins" envconfig:"EMBED_ANCESTOR_ORIGINS" default:"reddex.app,cdn.embedly.com,discord.com"`
	// GalleryLimit caps how many gallery images are emitted per embed.
	GalleryLimit int `yaml:"gallery_limit" envconfig:"EMBED_GALLERY_LIMIT" default:"4"`
	// CacheMaxAge is the max-age served on successful embed documents.
	CacheMaxAge time.Duration `yaml:"cache_max_age" envconfig:"EMBED_CACHE_MAX_AGE" default:"4h"`
	// ErrorEmbedRate is the probability that an unexpected failure serves a
	// minimal valid embed instead of an error status, so intermediate
	// caches cannot pin a deterministic error page. Policy, not contract.
	ErrorEmbedRate float64 `yaml:"error_embed_rate" envconfig:"EMBED_ERROR_RATE" default:"0.1"`
}

// MediaConfig holds stable media handle configuration.
type MediaConfig struct {
	// TokenSecret keys the integrity tag sealed into published tokens.
	TokenSecret string `yaml:"token_secret" envconfig:"MEDIA_TOKEN_SECRET"`
}

// EventsConfig holds operational event log configuration.
type EventsConfig struct {
	RingSize      int    `yaml:"ring_size" envconfig:"EVENTS_RING_SIZE" default:"1000"`
	SQLitePath    string `yaml:"sqlite_path" envconfig:"EVENTS_SQLITE_PATH"`
	RetentionDays int    `yaml:"retention_days" envconfig:"EVENTS_RETENTION_DAYS" default:"30"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Media.TokenSecret == "" {
		return fmt.Errorf("MEDIA_TOKEN_SECRET is required")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if c.Embed.ErrorEmbedRate < 0 || c.Embed.ErrorEmbedRate > 1 {
		return fmt.Errorf("EMBED_ERROR_RATE must be between 0 and 1")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
