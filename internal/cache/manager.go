// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package cache keeps playable media available offline. A prime pass runs
// after every feed refresh: the head of the feed is always cached, plus a
// small frontier of items the user has not seen yet. Media bodies live in
// the same Badger database as the rest of the state, keyed by media URL
// under their own prefix.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aldahan/feedgarden/internal/config"
	"github.com/aldahan/feedgarden/internal/metrics"
	"github.com/aldahan/feedgarden/internal/models"
	"github.com/aldahan/feedgarden/internal/store"
)

const (
	bodyPrefix = "media:body:"
	metaPrefix = "media:meta:"
)

// ErrNotCached is returned by Get when a URL has no cached media.
var ErrNotCached = errors.New("cache: media not cached")

// Meta describes one cached media object.
type Meta struct {
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CachedAt    time.Time `json:"cachedAt"`
}

// PrimeResult summarizes one prime pass.
type PrimeResult struct {
	Fetched int
	Skipped int
	Failed  int
}

// Manager downloads and serves cached media.
type Manager struct {
	db         *badger.DB
	store      *store.Store
	httpClient *http.Client
	limiter    *rate.Limiter

	priorityCount int
	unseenCount   int
	maxItemBytes  int64

	logger zerolog.Logger
}

// NewManager creates a cache manager sharing the store's Badger database.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewManager(cfg *config.CacheConfig, st *store.Store, logger zerolog.Logger) *Manager {
	return &Manager{
		db:            st.DB(),
		store:         st,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		limiter:       rate.NewLimiter(rate.Limit(cfg.FetchPerSecond), cfg.FetchBurst),
		priorityCount: cfg.PriorityCount,
		unseenCount:   cfg.UnseenCount,
		maxItemBytes:  cfg.MaxItemBytes,
		logger:        logger.With().Str("component", "cache").Logger(),
	}
}

// Prime ensures the feed head and an unseen frontier are cached, and marks
// every primed item seen so the frontier keeps advancing. One item failing
// never aborts the pass; downloads are rate limited and run concurrently,
// one goroutine per item. Concurrent passes may double-fetch a URL; the
// write is idempotent so that is only wasted bandwidth.
func (m *Manager) Prime(ctx context.Context, feedItems []models.MediaItem) PrimeResult {
	targets := m.selectTargets(feedItems)

	var (
		mu     sync.Mutex
		result PrimeResult
		wg     sync.WaitGroup
	)

	for i := range targets {
		item := targets[i]

		if m.IsCached(item.MediaURL) {
			metrics.CacheFetchTotal.WithLabelValues("skipped").Inc()
			result.Skipped++
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			_, _, err := m.fetchAndStore(ctx, item.MediaURL)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				metrics.CacheFetchTotal.WithLabelValues("error").Inc()
				m.logger.Warn().Err(err).Str("item", item.ID).Msg("media fetch failed")
				result.Failed++
				return
			}
			metrics.CacheFetchTotal.WithLabelValues("success").Inc()
			result.Fetched++
		}()
	}

	wg.Wait()

	ids := make([]string, 0, len(targets))
	for i := range targets {
		ids = append(ids, targets[i].ID)
	}
	if err := m.store.MarkSeen(ids...); err != nil {
		m.logger.Warn().Err(err).Msg("failed to mark primed items seen")
	}

	m.updateSizeGauge()
	m.logger.Info().
		Int("fetched", result.Fetched).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("cache prime pass complete")
	return result
}

// selectTargets picks the feed head plus up to unseenCount items the user
// has not been shown yet.
func (m *Manager) selectTargets(feedItems []models.MediaItem) []models.MediaItem {
	head := m.priorityCount
	if head > len(feedItems) {
		head = len(feedItems)
	}
	targets := make([]models.MediaItem, 0, head+m.unseenCount)
	targets = append(targets, feedItems[:head]...)

	seen := m.store.SeenSet()
	picked := 0
	for i := head; i < len(feedItems) && picked < m.unseenCount; i++ {
		if _, ok := seen[feedItems[i].ID]; ok {
			continue
		}
		targets = append(targets, feedItems[i])
		picked++
	}
	return targets
}

// fetchAndStore downloads one media object and persists body and meta.
func (m *Manager) fetchAndStore(ctx context.Context, url string) ([]byte, Meta, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, Meta{}, fmt.Errorf("cache: rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("cache: build request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("cache: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, Meta{}, fmt.Errorf("cache: unexpected status %d for %s", resp.StatusCode, url)
	}

	// The +1 read detects bodies that blow past the cap.
	body, err := io.ReadAll(io.LimitReader(resp.Body, m.maxItemBytes+1))
	if err != nil {
		return nil, Meta{}, fmt.Errorf("cache: read body: %w", err)
	}
	if int64(len(body)) > m.maxItemBytes {
		return nil, Meta{}, fmt.Errorf("cache: media at %s exceeds %d byte cap", url, m.maxItemBytes)
	}

	meta := Meta{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(body)),
		CachedAt:    time.Now().UTC(),
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("cache: encode meta: %w", err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(bodyPrefix+url), body); err != nil {
			return err
		}
		return txn.Set([]byte(metaPrefix+url), rawMeta)
	})
	if err != nil {
		return nil, Meta{}, fmt.Errorf("cache: persist media %s: %w", url, err)
	}

	return body, meta, nil
}

// IsCached reports whether a URL has a cached media body.
func (m *Manager) IsCached(url string) bool {
	err := m.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(bodyPrefix + url))
		return err
	})
	return err == nil
}

// Get returns the cached media body and its metadata.
func (m *Manager) Get(url string) ([]byte, Meta, error) {
	var (
		body []byte
		meta Meta
	)
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(bodyPrefix + url))
		if err != nil {
			return err
		}
		if body, err = item.ValueCopy(nil); err != nil {
			return err
		}

		metaItem, err := txn.Get([]byte(metaPrefix + url))
		if err != nil {
			return err
		}
		rawMeta, err := metaItem.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(rawMeta, &meta)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.CacheMisses.Inc()
		return nil, Meta{}, ErrNotCached
	}
	if err != nil {
		return nil, Meta{}, fmt.Errorf("cache: read media %s: %w", url, err)
	}

	metrics.CacheHits.Inc()
	return body, meta, nil
}

// GetOrFetch serves from the cache when possible, otherwise downloads the
// media, stores it, and serves it. The hit flag tells callers which path
// was taken.
func (m *Manager) GetOrFetch(ctx context.Context, url string) (body []byte, meta Meta, hit bool, err error) {
	body, meta, err = m.Get(url)
	if err == nil {
		return body, meta, true, nil
	}
	if !errors.Is(err, ErrNotCached) {
		return nil, Meta{}, false, err
	}

	body, meta, err = m.fetchAndStore(ctx, url)
	if err != nil {
		metrics.CacheFetchTotal.WithLabelValues("error").Inc()
		return nil, Meta{}, false, err
	}
	metrics.CacheFetchTotal.WithLabelValues("success").Inc()
	m.updateSizeGauge()
	return body, meta, false, nil
}

// Purge drops cached media whose URL is absent from keep.
func (m *Manager) Purge(keep map[string]struct{}) error {
	var stale []string

	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			url := string(it.Item().Key()[len(metaPrefix):])
			if _, ok := keep[url]; !ok {
				stale = append(stale, url)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: scan for stale media: %w", err)
	}

	for _, url := range stale {
		err := m.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete([]byte(bodyPrefix + url)); err != nil {
				return err
			}
			return txn.Delete([]byte(metaPrefix + url))
		})
		if err != nil {
			return fmt.Errorf("cache: purge media %s: %w", url, err)
		}
		m.logger.Debug().Str("url", url).Msg("purged stale cached media")
	}

	m.updateSizeGauge()
	return nil
}

// updateSizeGauge recomputes the total cached bytes gauge from metadata.
func (m *Manager) updateSizeGauge() {
	var total int64
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(metaPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var meta Meta
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(raw, &meta); err != nil {
				continue // skip undecodable meta, body is still servable
			}
			total += meta.Size
		}
		return nil
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to recompute cache size")
		return
	}
	metrics.CacheBytes.Set(float64(total))
}
