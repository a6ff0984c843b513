// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package service contains the supervised long-running pieces of the
// daemon: the periodic feed refresh loop and the HTTP server wrapper.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldahan/feedgarden/internal/cache"
	"github.com/aldahan/feedgarden/internal/catalog"
	"github.com/aldahan/feedgarden/internal/config"
	"github.com/aldahan/feedgarden/internal/feed"
	"github.com/aldahan/feedgarden/internal/models"
	"github.com/aldahan/feedgarden/internal/store"
	"github.com/aldahan/feedgarden/internal/websocket"
)

// Refresher runs the refresh cycle: fetch catalog, assemble the feed,
// publish the snapshot, prime the media cache, notify websocket clients.
// It implements suture.Service.
type Refresher struct {
	fetcher   *catalog.Fetcher
	assembler *feed.Assembler
	cache     *cache.Manager
	store     *store.Store
	hub       *websocket.Hub

	interval  time.Duration
	onStartup bool

	// mu guards the published snapshot. Readers never observe a
	// half-written refresh.
	mu      sync.RWMutex
	catalog []models.MediaItem
	feed    feed.Feed
	ready   bool

	logger zerolog.Logger
}

// NewRefresher wires the refresh cycle together.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRefresher(
	cfg *config.RefreshConfig,
	fetcher *catalog.Fetcher,
	assembler *feed.Assembler,
	cacheMgr *cache.Manager,
	st *store.Store,
	hub *websocket.Hub,
	logger zerolog.Logger,
) *Refresher {
	return &Refresher{
		fetcher:   fetcher,
		assembler: assembler,
		cache:     cacheMgr,
		store:     st,
		hub:       hub,
		interval:  cfg.Interval,
		onStartup: cfg.OnStartup,
		logger:    logger.With().Str("component", "refresher").Logger(),
	}
}

// Serve implements suture.Service: refresh on startup when configured,
// then on every tick until the context is canceled. A failed cycle is
// logged and retried at the next tick, never escalated to the supervisor.
func (r *Refresher) Serve(ctx context.Context) error {
	if r.onStartup {
		if err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error().Err(err).Msg("startup refresh failed")
		}
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Error().Err(err).Msg("scheduled refresh failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (r *Refresher) String() string {
	return "feed-refresher"
}

// Refresh runs one full cycle synchronously.
func (r *Refresher) Refresh(ctx context.Context) error {
	started := time.Now()

	items, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	state := r.store.Interactions()
	assembled, err := r.assembler.Assemble(ctx, items, state)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	r.mu.Lock()
	r.catalog = items
	r.feed = assembled
	r.ready = true
	r.mu.Unlock()

	r.hub.BroadcastFeedRefreshed(string(assembled.Source), len(assembled.Items))

	result := r.cache.Prime(ctx, assembled.Items)
	r.hub.BroadcastPrimeComplete(result.Fetched, result.Skipped, result.Failed)

	keep := make(map[string]struct{}, len(items))
	for i := range items {
		keep[items[i].MediaURL] = struct{}{}
	}
	if err := r.cache.Purge(keep); err != nil {
		r.logger.Warn().Err(err).Msg("cache purge failed")
	}

	r.logger.Info().
		Int("items", len(assembled.Items)).
		Str("source", string(assembled.Source)).
		Dur("took", time.Since(started)).
		Msg("feed refreshed")
	return nil
}

// Feed returns the latest published feed. When no refresh has completed
// yet it runs one synchronously.
func (r *Refresher) Feed(ctx context.Context) (feed.Feed, error) {
	r.mu.RLock()
	if r.ready {
		f := r.feed
		r.mu.RUnlock()
		return f, nil
	}
	r.mu.RUnlock()

	if err := r.Refresh(ctx); err != nil {
		return feed.Feed{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feed, nil
}

// Catalog returns the latest fetched catalog, fetching once if the first
// refresh has not happened yet.
func (r *Refresher) Catalog(ctx context.Context) ([]models.MediaItem, error) {
	r.mu.RLock()
	if r.ready {
		items := r.catalog
		r.mu.RUnlock()
		return items, nil
	}
	r.mu.RUnlock()

	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog, nil
}
