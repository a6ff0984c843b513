// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package ranking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aldahan/feedgarden/internal/config"
	"github.com/aldahan/feedgarden/internal/metrics"
	"github.com/aldahan/feedgarden/internal/models"
)

// candidate is the per-item summary sent to the ranking service. Media URLs
// are omitted on purpose; the service ranks on metadata only.
type candidate struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Category string      `json:"category,omitempty"`
	Kind     models.Kind `json:"kind"`
}

// watchSignal is a compact watch history entry for the ranking request.
type watchSignal struct {
	ID       string  `json:"id"`
	Progress float64 `json:"progress"`
}

// rankRequest is the wire request.
type rankRequest struct {
	Items    []candidate   `json:"items"`
	Liked    []string      `json:"liked"`
	Disliked []string      `json:"disliked"`
	Saved    []string      `json:"saved"`
	History  []watchSignal `json:"history"`
}

// rankResponse is the wire response.
type rankResponse struct {
	RankedIDs []string `json:"rankedIds"`
}

// HTTPProvider calls a remote ranking endpoint, protected by a circuit
// breaker tuned the same way as the catalog client.
type HTTPProvider struct {
	url        string
	apiKey     string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]string]
	logger     zerolog.Logger
}

// NewHTTPProvider creates a provider from configuration.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHTTPProvider(cfg *config.RankingConfig, logger zerolog.Logger) *HTTPProvider {
	p := &HTTPProvider{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "ranking").Logger(),
	}

	p.cb = gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:        "ranking-service",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return p
}

// Rank calls the remote service. All failure modes collapse into
// ErrUnavailable so callers have a single degradation path.
func (p *HTTPProvider) Rank(ctx context.Context, items []models.MediaItem, state models.InteractionState) ([]string, error) {
	start := time.Now()
	ids, err := p.cb.Execute(func() ([]string, error) {
		return p.rank(ctx, items, state)
	})
	metrics.RankingRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if breakerRejected(err) {
			metrics.RankingRequestTotal.WithLabelValues("unavailable").Inc()
		} else {
			metrics.RankingRequestTotal.WithLabelValues("error").Inc()
		}
		p.logger.Warn().Err(err).Msg("ranking unavailable, feed will use local ordering")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	metrics.RankingRequestTotal.WithLabelValues("success").Inc()
	return ids, nil
}

// breakerRejected reports whether the failure came from the breaker itself
// rather than the upstream call.
func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// rank performs one request/response cycle.
func (p *HTTPProvider) rank(ctx context.Context, items []models.MediaItem, state models.InteractionState) ([]string, error) {
	reqBody := rankRequest{
		Items:    make([]candidate, 0, len(items)),
		Liked:    state.Liked,
		Disliked: state.Disliked,
		Saved:    state.Saved,
		History:  make([]watchSignal, 0, len(state.WatchHistory)),
	}
	for i := range items {
		reqBody.Items = append(reqBody.Items, candidate{
			ID:       items[i].ID,
			Title:    items[i].Title,
			Category: items[i].Category,
			Kind:     items[i].Kind,
		})
	}
	for _, e := range state.WatchHistory {
		reqBody.History = append(reqBody.History, watchSignal{ID: e.ID, Progress: e.Progress})
	}

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body rankResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(body.RankedIDs) == 0 {
		return nil, fmt.Errorf("empty ranking")
	}
	return body.RankedIDs, nil
}
