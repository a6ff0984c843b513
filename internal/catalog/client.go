// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package catalog fetches the media catalog from the upstream CDN tag list
// and maps it into domain items. Fetches are retried with exponential
// backoff, protected by a circuit breaker, and fall back to the last
// persisted snapshot when the upstream is unreachable.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/aldahan/feedgarden/internal/config"
	"github.com/aldahan/feedgarden/internal/models"
)

const (
	// defaultBaseURL is the public CDN root used when no override is set.
	defaultBaseURL = "https://res.cloudinary.com"

	// maxErrorBodySize caps how much of an error response body is read.
	maxErrorBodySize = 64 * 1024
)

// tagListResponse is the upstream tag list wire format.
type tagListResponse struct {
	Resources []resource `json:"resources"`
}

// resource is a single upstream asset entry.
type resource struct {
	PublicID  string   `json:"public_id"`
	Version   int64    `json:"version"`
	Format    string   `json:"format"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Duration  float64  `json:"duration"`
	CreatedAt string   `json:"created_at"`
	Tags      []string `json:"tags"`
	Context   struct {
		Custom struct {
			Caption  string `json:"caption"`
			Category string `json:"category"`
		} `json:"custom"`
	} `json:"context"`
}

// Client fetches the raw catalog over HTTP.
type Client struct {
	baseURL    string
	cloudName  string
	tag        string
	maxRetries int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a catalog client from configuration.
func NewClient(cfg *config.CatalogConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		cloudName:  cfg.CloudName,
		tag:        cfg.Tag,
		maxRetries: cfg.RetryAttempts,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zerolog.Nop(),
	}
}

// SetLogger attaches a logger to the client.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger.With().Str("component", "catalog").Logger()
}

// listURL returns the tag list endpoint for the configured account.
func (c *Client) listURL() string {
	return fmt.Sprintf("%s/%s/video/list/%s.json", c.baseURL, c.cloudName, c.tag)
}

// Fetch retrieves and maps the catalog. Rate-limited responses are retried
// with exponential backoff, honoring Retry-After when the upstream sends it.
func (c *Client) Fetch(ctx context.Context) ([]models.MediaItem, error) {
	url := c.listURL()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		items, retryAfter, err := c.fetchOnce(ctx, url)
		if err == nil {
			return items, nil
		}
		lastErr = err

		if retryAfter <= 0 {
			// Only rate limiting is retried; everything else fails fast.
			return nil, err
		}
		if attempt == c.maxRetries {
			break
		}

		c.logger.Warn().
			Int("attempt", attempt+1).
			Dur("wait", retryAfter).
			Msg("catalog rate limited, backing off")

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, fmt.Errorf("catalog: fetch canceled during backoff: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("catalog: rate limited after %d attempts: %w", c.maxRetries+1, lastErr)
}

// fetchOnce performs a single fetch. On a 429 response it returns the delay
// to wait before retrying; a zero delay means the error is terminal.
func (c *Client) fetchOnce(ctx context.Context, url string) ([]models.MediaItem, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, retryAfterDelay(resp), fmt.Errorf("catalog: rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, 0, fmt.Errorf("catalog: unexpected status %d: %s", resp.StatusCode, body)
	}

	var list tagListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, 0, fmt.Errorf("catalog: decode response: %w", err)
	}

	items := make([]models.MediaItem, 0, len(list.Resources))
	for i := range list.Resources {
		items = append(items, c.mapResource(&list.Resources[i]))
	}
	return items, 0, nil
}

// retryAfterDelay computes the backoff for a 429, honoring the Retry-After
// header and falling back to a fixed delay when it is absent or malformed.
func retryAfterDelay(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}

// readBodyForError reads a bounded prefix of the response body for error
// messages, so a huge error page cannot blow up memory.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(unreadable body)"
	}
	return strings.TrimSpace(string(body))
}

// mapResource converts an upstream asset into a domain item.
func (c *Client) mapResource(r *resource) models.MediaItem {
	kind := models.KindFromDimensions(r.Width, r.Height)

	title := r.Context.Custom.Caption
	if title == "" {
		title = humanizePublicID(r.PublicID)
	}

	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		createdAt = time.Time{}
	}

	return models.MediaItem{
		ID:        r.PublicID,
		PublicID:  r.PublicID,
		Title:     title,
		Category:  r.Context.Custom.Category,
		Kind:      kind,
		MediaURL:  c.deliveryURL(r),
		PosterURL: c.posterURL(r),
		Tags:      r.Tags,
		Width:     r.Width,
		Height:    r.Height,
		Duration:  r.Duration,
		Format:    r.Format,
		CreatedAt: createdAt,
	}
}

// deliveryURL builds the playable URL with automatic quality and format.
func (c *Client) deliveryURL(r *resource) string {
	return fmt.Sprintf("%s/%s/video/upload/q_auto,f_auto/v%d/%s.%s",
		c.baseURL, c.cloudName, r.Version, r.PublicID, r.Format)
}

// posterURL builds the first-frame poster image URL.
func (c *Client) posterURL(r *resource) string {
	return fmt.Sprintf("%s/%s/video/upload/q_auto,f_auto,so_0/v%d/%s.jpg",
		c.baseURL, c.cloudName, r.Version, r.PublicID)
}

// humanizePublicID turns an asset id like "clips/sunset_ride" into a
// readable title.
func humanizePublicID(publicID string) string {
	name := publicID
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	if name == "" {
		return publicID
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
