// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package api exposes the feed, interaction and media cache operations
// over HTTP using the Chi router.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aldahan/feedgarden/internal/cache"
	"github.com/aldahan/feedgarden/internal/config"
	"github.com/aldahan/feedgarden/internal/feed"
	"github.com/aldahan/feedgarden/internal/models"
	"github.com/aldahan/feedgarden/internal/store"
	"github.com/aldahan/feedgarden/internal/websocket"
)

// FeedService is the slice of the refresh service the API consumes.
type FeedService interface {
	Refresh(ctx context.Context) error
	Feed(ctx context.Context) (feed.Feed, error)
	Catalog(ctx context.Context) ([]models.MediaItem, error)
}

// Server holds the dependencies behind the HTTP handlers.
type Server struct {
	cfg   *config.ServerConfig
	feeds FeedService
	store *store.Store
	cache *cache.Manager
	hub   *websocket.Hub
}

// NewServer creates the API server. The hub may be nil when WebSocket
// support is not wired, in which case /ws responds 503.
func NewServer(cfg *config.ServerConfig, feeds FeedService, st *store.Store, mediaCache *cache.Manager, hub *websocket.Hub) *Server {
	return &Server{
		cfg:   cfg,
		feeds: feeds,
		store: st,
		cache: mediaCache,
		hub:   hub,
	}
}

// Routes assembles the Chi router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(s.cfg.CORSOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter(s.cfg))

		r.Get("/feed", s.handleFeed)
		r.Get("/sections", s.handleSections)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/interactions", s.handleInteractions)
		r.Put("/interactions", s.handleImportInteractions)
		r.Get("/media", s.handleMedia)

		r.Route("/items/{id}", func(r chi.Router) {
			r.Post("/like", s.handleLike)
			r.Post("/dislike", s.handleDislike)
			r.Post("/save", s.handleSave)
			r.Delete("/save", s.handleUnsave)
			r.Post("/restore", s.handleRestore)
			r.Post("/progress", s.handleProgress)
		})
	})

	return r
}
