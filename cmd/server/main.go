// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package main is the entry point for the Feedgarden daemon.
//
// Feedgarden serves a personalized short and long form video feed for a
// single user, built for offline-first consumption. The daemon periodically
// fetches the remote video catalog, orders it through an optional external
// ranking service (degrading to catalog order when that service is down),
// distributes the result into deterministic rails, primes a local media
// cache with the feed head and an unseen frontier, and exposes the whole
// thing over an HTTP API with live WebSocket notifications.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layering defaults, config.yaml and env vars
//  2. Logging: global zerolog with configurable level and format
//  3. Store: Badger database holding interactions, snapshot, seen ledger
//     and cached media
//  4. Clients: Cloudinary catalog client and the ranking provider, both
//     behind circuit breakers
//  5. Supervision: suture tree running the refresh loop, the WebSocket
//     hub and the HTTP server
//
// The daemon shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aldahan/feedgarden/internal/api"
	"github.com/aldahan/feedgarden/internal/cache"
	"github.com/aldahan/feedgarden/internal/catalog"
	"github.com/aldahan/feedgarden/internal/config"
	"github.com/aldahan/feedgarden/internal/feed"
	"github.com/aldahan/feedgarden/internal/logging"
	"github.com/aldahan/feedgarden/internal/ranking"
	"github.com/aldahan/feedgarden/internal/service"
	"github.com/aldahan/feedgarden/internal/store"
	"github.com/aldahan/feedgarden/internal/supervisor"
	"github.com/aldahan/feedgarden/internal/websocket"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logger := logging.Logger()

	logger.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting feedgarden")

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open store")
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("Failed to close store")
		}
	}()

	// Catalog source behind a circuit breaker, with snapshot fallback.
	client := catalog.NewClient(&cfg.Catalog)
	client.SetLogger(logger)
	fetcher := catalog.NewFetcher(catalog.NewBreakerClient(client), st, logger)

	var provider ranking.Provider = ranking.Disabled{}
	if cfg.Ranking.Enabled {
		provider = ranking.NewHTTPProvider(&cfg.Ranking, logger)
	}
	assembler := feed.NewAssembler(provider, logger)

	mediaCache := cache.NewManager(&cfg.Cache, st, logger)
	hub := websocket.NewHub()

	refresher := service.NewRefresher(&cfg.Refresh, fetcher, assembler, mediaCache, st, hub, logger)

	apiServer := api.NewServer(&cfg.Server, refresher, st, mediaCache, hub)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      apiServer.Routes(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddCoreService(service.NewHubService(hub))
	tree.AddCoreService(refresher)
	tree.AddAPIService(service.NewHTTPService(httpServer, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited")
		os.Exit(1)
	}

	logger.Info().Msg("Shutdown complete")
}
