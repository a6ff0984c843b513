// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validBaseEnv sets the minimum environment for a loadable config.
func validBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CATALOG_CLOUD_NAME", "demo-cloud")
	t.Setenv("CATALOG_TAG", "garden")
	t.Setenv("STORE_PATH", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	validBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8377 {
		t.Errorf("default port = %d, want 8377", cfg.Server.Port)
	}
	if cfg.Cache.PriorityCount != 10 {
		t.Errorf("default priority count = %d, want 10", cfg.Cache.PriorityCount)
	}
	if cfg.Cache.UnseenCount != 5 {
		t.Errorf("default unseen count = %d, want 5", cfg.Cache.UnseenCount)
	}
	if cfg.Refresh.Interval != 30*time.Minute {
		t.Errorf("default refresh interval = %v, want 30m", cfg.Refresh.Interval)
	}
	if cfg.Ranking.Enabled {
		t.Errorf("ranking should be disabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	validBaseEnv(t)
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CACHE_PRIORITY_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Cache.PriorityCount != 3 {
		t.Errorf("priority count = %d, want 3", cfg.Cache.PriorityCount)
	}
}

func TestLoadConfigFile(t *testing.T) {
	validBaseEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "server:\n  port: 4242\nrefresh:\n  interval: 5m\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 4242 {
		t.Errorf("port from file = %d, want 4242", cfg.Server.Port)
	}
	if cfg.Refresh.Interval != 5*time.Minute {
		t.Errorf("interval from file = %v, want 5m", cfg.Refresh.Interval)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	validBaseEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 4242\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "5151")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 5151 {
		t.Errorf("port = %d, want env override 5151", cfg.Server.Port)
	}
}

func TestCORSOriginsFromEnv(t *testing.T) {
	validBaseEnv(t)
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, http://localhost:5173")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Fatalf("cors origins = %v, want 2 entries", cfg.Server.CORSOrigins)
	}
	if cfg.Server.CORSOrigins[1] != "http://localhost:5173" {
		t.Errorf("cors origins not trimmed: %v", cfg.Server.CORSOrigins)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing cloud name",
			mutate:  func(c *Config) { c.Catalog.CloudName = "" },
			wantSub: "CATALOG_CLOUD_NAME",
		},
		{
			name:    "missing tag",
			mutate:  func(c *Config) { c.Catalog.Tag = "" },
			wantSub: "CATALOG_TAG",
		},
		{
			name: "ranking enabled without url",
			mutate: func(c *Config) {
				c.Ranking.Enabled = true
				c.Ranking.URL = ""
			},
			wantSub: "RANKING_URL",
		},
		{
			name: "ranking url bad scheme",
			mutate: func(c *Config) {
				c.Ranking.Enabled = true
				c.Ranking.URL = "ftp://rank.example.com"
			},
			wantSub: "http or https",
		},
		{
			name:    "missing store path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantSub: "STORE_PATH",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantSub: "HTTP_PORT",
		},
		{
			name:    "negative priority count",
			mutate:  func(c *Config) { c.Cache.PriorityCount = -1 },
			wantSub: "CACHE_PRIORITY_COUNT",
		},
		{
			name:    "zero fetch rate",
			mutate:  func(c *Config) { c.Cache.FetchPerSecond = 0 },
			wantSub: "CACHE_FETCH_PER_SECOND",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantSub: "LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Catalog.CloudName = "demo"
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() returned nil, want error containing %q", tt.wantSub)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestEnvTransformIgnoresUnknown(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("envTransformFunc(PATH) = %q, want empty", got)
	}
	if got := envTransformFunc("CATALOG_CLOUD_NAME"); got != "catalog.cloud_name" {
		t.Errorf("envTransformFunc(CATALOG_CLOUD_NAME) = %q", got)
	}
}
