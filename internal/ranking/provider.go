// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package ranking talks to the external AI ranking service. The provider is
// strictly advisory: any failure surfaces as ErrUnavailable and the feed
// falls back to local ordering.
package ranking

import (
	"context"
	"errors"

	"github.com/aldahan/feedgarden/internal/models"
)

// ErrUnavailable is returned whenever a ranking cannot be produced: the
// service is disabled, unreachable, rate limited, or returned garbage.
// Callers treat it as "use local ordering", never as a hard failure.
var ErrUnavailable = errors.New("ranking: unavailable")

// Provider produces a personalized ordering of catalog item ids.
type Provider interface {
	// Rank returns item ids in recommended order. The returned ids may be
	// a subset or superset of the input; the feed assembler reconciles
	// them against the catalog.
	Rank(ctx context.Context, items []models.MediaItem, state models.InteractionState) ([]string, error)
}

// Disabled is a Provider that always reports ErrUnavailable. Used when
// ranking is switched off in configuration.
type Disabled struct{}

// Rank always returns ErrUnavailable.
func (Disabled) Rank(_ context.Context, _ []models.MediaItem, _ models.InteractionState) ([]string, error) {
	return nil, ErrUnavailable
}
