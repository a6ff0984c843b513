// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/feedgarden/config.yaml",
	"/etc/feedgarden/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied.
// These are layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			CloudName:     "",
			Tag:           "feed",
			BaseURL:       "",
			Timeout:       30 * time.Second,
			RetryAttempts: 5,
		},
		Ranking: RankingConfig{
			Enabled: false,
			URL:     "",
			APIKey:  "",
			Timeout: 20 * time.Second,
		},
		Store: StoreConfig{
			Path: "/data/feedgarden",
		},
		Cache: CacheConfig{
			PriorityCount:  10,
			UnseenCount:    5,
			FetchPerSecond: 2,
			FetchBurst:     2,
			MaxItemBytes:   256 << 20, // 256MB per media object
			Timeout:        2 * time.Minute,
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8377,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Refresh: RefreshConfig{
			Interval:  30 * time.Minute,
			OnStartup: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration using Koanf v2 with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// FEEDGARDEN-prefix-free env names map directly onto config paths,
	// e.g. CATALOG_CLOUD_NAME -> catalog.cloud_name.
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as env var strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped keys return "" so that unrelated environment variables never
// pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Catalog mappings
		"catalog_cloud_name":     "catalog.cloud_name",
		"catalog_tag":            "catalog.tag",
		"catalog_base_url":       "catalog.base_url",
		"catalog_timeout":        "catalog.timeout",
		"catalog_retry_attempts": "catalog.retry_attempts",

		// Ranking mappings
		"ranking_enabled": "ranking.enabled",
		"ranking_url":     "ranking.url",
		"ranking_api_key": "ranking.api_key",
		"ranking_timeout": "ranking.timeout",

		// Store mappings
		"store_path": "store.path",

		// Cache mappings
		"cache_priority_count":   "cache.priority_count",
		"cache_unseen_count":     "cache.unseen_count",
		"cache_fetch_per_second": "cache.fetch_per_second",
		"cache_fetch_burst":      "cache.fetch_burst",
		"cache_max_item_bytes":   "cache.max_item_bytes",
		"cache_timeout":          "cache.timeout",

		// Server mappings
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_timeout":        "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",

		// Refresh mappings
		"refresh_interval":   "refresh.interval",
		"refresh_on_startup": "refresh.on_startup",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
