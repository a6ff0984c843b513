// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package config loads and validates Feedgarden configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, in increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration for the Feedgarden daemon.
type Config struct {
	Catalog CatalogConfig `koanf:"catalog"`
	Ranking RankingConfig `koanf:"ranking"`
	Store   StoreConfig   `koanf:"store"`
	Cache   CacheConfig   `koanf:"cache"`
	Server  ServerConfig  `koanf:"server"`
	Refresh RefreshConfig `koanf:"refresh"`
	Logging LoggingConfig `koanf:"logging"`
}

// CatalogConfig configures the upstream media catalog source.
type CatalogConfig struct {
	// CloudName is the delivery account name in the catalog CDN.
	CloudName string `koanf:"cloud_name"`

	// Tag selects which tagged asset list to fetch.
	Tag string `koanf:"tag"`

	// BaseURL overrides the CDN root. Empty means the public default.
	BaseURL string `koanf:"base_url"`

	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
}

// RankingConfig configures the external ranking provider.
type RankingConfig struct {
	// Enabled toggles the remote ranking call. When disabled the feed is
	// assembled from local ordering only.
	Enabled bool `koanf:"enabled"`

	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// StoreConfig configures the embedded key-value store.
type StoreConfig struct {
	// Path is the Badger database directory.
	Path string `koanf:"path"`
}

// CacheConfig configures the offline media cache.
type CacheConfig struct {
	// PriorityCount is how many feed-head items are always cached.
	PriorityCount int `koanf:"priority_count"`

	// UnseenCount is how many not-yet-seen items are cached beyond the head.
	UnseenCount int `koanf:"unseen_count"`

	// FetchPerSecond limits media downloads during a prime pass.
	FetchPerSecond float64 `koanf:"fetch_per_second"`

	// FetchBurst is the rate limiter burst size.
	FetchBurst int `koanf:"fetch_burst"`

	// MaxItemBytes caps the size of a single cached media object.
	MaxItemBytes int64 `koanf:"max_item_bytes"`

	Timeout time.Duration `koanf:"timeout"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RefreshConfig configures the background feed refresh loop.
type RefreshConfig struct {
	Interval  time.Duration `koanf:"interval"`
	OnStartup bool          `koanf:"on_startup"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateRanking(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	if c.Catalog.CloudName == "" {
		return fmt.Errorf("CATALOG_CLOUD_NAME is required")
	}
	if c.Catalog.Tag == "" {
		return fmt.Errorf("CATALOG_TAG is required")
	}
	if c.Catalog.BaseURL != "" {
		if err := validateHTTPURL(c.Catalog.BaseURL, "CATALOG_BASE_URL"); err != nil {
			return err
		}
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive, got %v", c.Catalog.Timeout)
	}
	if c.Catalog.RetryAttempts < 0 {
		return fmt.Errorf("CATALOG_RETRY_ATTEMPTS must be non-negative, got %d", c.Catalog.RetryAttempts)
	}
	return nil
}

func (c *Config) validateRanking() error {
	if !c.Ranking.Enabled {
		return nil
	}
	if c.Ranking.URL == "" {
		return fmt.Errorf("RANKING_URL is required when RANKING_ENABLED=true")
	}
	if err := validateHTTPURL(c.Ranking.URL, "RANKING_URL"); err != nil {
		return err
	}
	if c.Ranking.Timeout <= 0 {
		return fmt.Errorf("RANKING_TIMEOUT must be positive, got %v", c.Ranking.Timeout)
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.PriorityCount < 0 {
		return fmt.Errorf("CACHE_PRIORITY_COUNT must be non-negative, got %d", c.Cache.PriorityCount)
	}
	if c.Cache.UnseenCount < 0 {
		return fmt.Errorf("CACHE_UNSEEN_COUNT must be non-negative, got %d", c.Cache.UnseenCount)
	}
	if c.Cache.FetchPerSecond <= 0 {
		return fmt.Errorf("CACHE_FETCH_PER_SECOND must be positive, got %v", c.Cache.FetchPerSecond)
	}
	if c.Cache.FetchBurst < 1 {
		return fmt.Errorf("CACHE_FETCH_BURST must be at least 1, got %d", c.Cache.FetchBurst)
	}
	if c.Cache.MaxItemBytes <= 0 {
		return fmt.Errorf("CACHE_MAX_ITEM_BYTES must be positive, got %d", c.Cache.MaxItemBytes)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be in range 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if !c.Server.RateLimitDisabled && c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Server.RateLimitReqs)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a URL parses and uses an http(s) scheme.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
