// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package feed turns a catalog plus interaction state into the ordered,
// sectioned feed the client renders. Ordering prefers the external ranking
// when available and degrades to catalog order otherwise; sectioning is
// fully deterministic.
package feed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldahan/feedgarden/internal/metrics"
	"github.com/aldahan/feedgarden/internal/models"
	"github.com/aldahan/feedgarden/internal/ranking"
)

// Source identifies how a feed was ordered.
type Source string

const (
	// SourceRanked means the external ranking supplied the order.
	SourceRanked Source = "ranked"

	// SourceLocal means catalog order was used.
	SourceLocal Source = "local"
)

// Feed is an assembled, sectioned feed.
type Feed struct {
	Items       []models.MediaItem `json:"items"`
	Sections    []Section          `json:"sections"`
	Source      Source             `json:"source"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// Assembler builds feeds from catalog items and interaction state.
type Assembler struct {
	provider ranking.Provider
	logger   zerolog.Logger
}

// NewAssembler creates an assembler using the given ranking provider.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAssembler(provider ranking.Provider, logger zerolog.Logger) *Assembler {
	return &Assembler{
		provider: provider,
		logger:   logger.With().Str("component", "feed").Logger(),
	}
}

// Assemble orders the catalog and distributes it into sections.
// A ranking failure is not an error: the feed silently degrades to
// catalog order. Only context cancellation propagates.
func (a *Assembler) Assemble(ctx context.Context, items []models.MediaItem, state models.InteractionState) (Feed, error) {
	items = dedupeItems(items)

	source := SourceLocal
	ordered := items

	rankedIDs, err := a.provider.Rank(ctx, items, state)
	switch {
	case err == nil:
		ordered = MergeRanked(items, rankedIDs)
		source = SourceRanked
	case errors.Is(err, ranking.ErrUnavailable):
		a.logger.Debug().Msg("ranking unavailable, using catalog order")
	case ctx.Err() != nil:
		return Feed{}, ctx.Err()
	default:
		a.logger.Warn().Err(err).Msg("unexpected ranking error, using catalog order")
	}

	metrics.FeedAssembleTotal.WithLabelValues(string(source)).Inc()

	return Feed{
		Items:       ordered,
		Sections:    Distribute(ordered, state),
		Source:      source,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// MergeRanked reorders items to follow the ranked id list. Ranked ids may
// reference an item by its id or by its media URL; ids that match nothing
// are dropped. Items the ranking never mentioned keep their original
// relative order after the ranked block.
func MergeRanked(items []models.MediaItem, rankedIDs []string) []models.MediaItem {
	byKey := make(map[string]int, len(items)*2)
	for i := range items {
		byKey[items[i].ID] = i
		if items[i].MediaURL != "" {
			byKey[items[i].MediaURL] = i
		}
	}

	placed := make([]bool, len(items))
	out := make([]models.MediaItem, 0, len(items))

	for _, id := range rankedIDs {
		idx, ok := byKey[id]
		if !ok || placed[idx] {
			continue
		}
		placed[idx] = true
		out = append(out, items[idx])
	}
	for i := range items {
		if !placed[i] {
			out = append(out, items[i])
		}
	}
	return out
}

// dedupeItems drops duplicate ids, keeping the first occurrence.
func dedupeItems(items []models.MediaItem) []models.MediaItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.MediaItem, 0, len(items))
	for i := range items {
		if _, ok := seen[items[i].ID]; ok {
			continue
		}
		seen[items[i].ID] = struct{}{}
		out = append(out, items[i])
	}
	return out
}
