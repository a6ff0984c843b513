// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldahan/feedgarden/internal/metrics"
	"github.com/aldahan/feedgarden/internal/models"
	"github.com/aldahan/feedgarden/internal/store"
)

// Source fetches the raw catalog. Implemented by Client and BreakerClient.
type Source interface {
	Fetch(ctx context.Context) ([]models.MediaItem, error)
}

// Fetcher combines the upstream source with the persisted snapshot: a
// successful fetch refreshes the snapshot, a failed fetch falls back to it.
type Fetcher struct {
	source Source
	store  *store.Store
	logger zerolog.Logger
}

// NewFetcher creates a fetcher backed by the given source and store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewFetcher(source Source, st *store.Store, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		store:  st,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Fetch returns the freshest catalog available. Upstream failures degrade
// to the last persisted snapshot; only when both are unavailable does it
// return an error. Context cancellation is never masked by the fallback.
func (f *Fetcher) Fetch(ctx context.Context) ([]models.MediaItem, error) {
	start := time.Now()
	items, err := f.source.Fetch(ctx)
	metrics.CatalogFetchDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.CatalogFetchTotal.WithLabelValues("success").Inc()
		metrics.CatalogItems.Set(float64(len(items)))

		if perr := f.store.SaveCatalogSnapshot(items); perr != nil {
			f.logger.Warn().Err(perr).Msg("failed to persist catalog snapshot")
		}
		return items, nil
	}

	// A transport timeout also satisfies errors.Is(err, DeadlineExceeded),
	// so only the caller's own context decides whether the error is
	// terminal; everything else may still be served from the snapshot.
	if ctx.Err() != nil {
		return nil, err
	}

	metrics.CatalogFetchTotal.WithLabelValues("error").Inc()
	f.logger.Warn().Err(err).Msg("catalog fetch failed, trying snapshot")

	snap, serr := f.store.CatalogSnapshot()
	if serr != nil {
		return nil, fmt.Errorf("catalog: fetch failed (%w) and no snapshot available: %w", err, serr)
	}

	metrics.CatalogFetchTotal.WithLabelValues("fallback").Inc()
	f.logger.Info().
		Int("items", len(snap.Items)).
		Time("fetched_at", snap.FetchedAt).
		Msg("serving catalog from snapshot")
	return snap.Items, nil
}
