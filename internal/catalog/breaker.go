// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package catalog

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aldahan/feedgarden/internal/logging"
	"github.com/aldahan/feedgarden/internal/models"
)

// BreakerClient wraps Client with a circuit breaker so a flapping upstream
// stops being hammered. Opens after a 60% failure rate over at least 10
// requests; a recovery attempt is allowed after 2 minutes.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[[]models.MediaItem]
}

// NewBreakerClient wraps an existing client with breaker protection.
func NewBreakerClient(client *Client) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker[[]models.MediaItem](gobreaker.Settings{
		Name:        "catalog-cdn",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("circuit breaker state change")
		},
	})

	return &BreakerClient{client: client, cb: cb}
}

// Fetch retrieves the catalog with circuit breaker protection.
func (b *BreakerClient) Fetch(ctx context.Context) ([]models.MediaItem, error) {
	items, err := b.cb.Execute(func() ([]models.MediaItem, error) {
		return b.client.Fetch(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return items, nil
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
