package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN          string `yaml:"dsn" json:"dsn" jsonschema:"default=file:newsfeed.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=1,description=Maximum number of open connections"`
		KeepNews     int    `yaml:"keep_news" json:"keep_news" jsonschema:"default=500,description=Number of newest cached news kept after each save"`
	} `yaml:"database" json:"database" jsonschema:"description=News cache configuration"`

	Feeds FeedsConfig `yaml:"feeds" json:"feeds" jsonschema:"description=News sources"`
}

// FeedsConfig holds news source settings
type FeedsConfig struct {
	URLs            []string      `yaml:"urls" json:"urls" jsonschema:"required,minItems=1,description=RSS/Atom feed URLs"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Fetch timeout per feed"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Newsfeed/1.0,description=User agent for HTTP requests"`
	FallbackToCache bool          `yaml:"fallback_to_cache" json:"fallback_to_cache" jsonschema:"default=false,description=Serve cached news when feeds fail"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:newsfeed.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 1
	}
	if c.Database.KeepNews == 0 {
		c.Database.KeepNews = 500
	}

	if c.Feeds.Timeout == 0 {
		c.Feeds.Timeout = 30 * time.Second
	}
	if c.Feeds.UserAgent == "" {
		c.Feeds.UserAgent = "Newsfeed/1.0"
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if len(cfg.Feeds.URLs) == 0 {
		return fmt.Errorf("feeds.urls is required")
	}
	for _, u := range cfg.Feeds.URLs {
		parsed, err := url.ParseRequestURI(u)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("invalid feed url %q", u)
		}
	}
	if cfg.Feeds.Timeout < time.Second {
		return fmt.Errorf("feeds.timeout must be at least 1 second")
	}
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Database.KeepNews < 0 {
		return fmt.Errorf("database.keep_news must be non-negative")
	}
	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}
