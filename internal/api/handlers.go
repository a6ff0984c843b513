// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aldahan/feedgarden/internal/feed"
	"github.com/aldahan/feedgarden/internal/models"
	"github.com/aldahan/feedgarden/internal/websocket"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // response write errors are not recoverable
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "ws_unavailable", "websocket hub not configured", nil)
		return
	}
	websocket.ServeWS(s.hub, w, r)
}

// handleFeed serves the published feed. Sections are recomputed from the
// current interaction state so dislikes and watch history changes show up
// without waiting for the next refresh cycle. `?refresh=1` forces a full
// synchronous cycle first, and `?q=` filters items by title or category.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.URL.Query().Get("refresh") == "1" {
		if err := s.feeds.Refresh(ctx); err != nil {
			respondError(w, http.StatusBadGateway, "refresh_failed", "catalog refresh failed", err)
			return
		}
	}

	f, err := s.feeds.Feed(ctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "feed_unavailable", "no feed available", err)
		return
	}

	state := s.store.Interactions()
	if q := r.URL.Query().Get("q"); q != "" {
		f.Items = searchItems(f.Items, q)
		f.Sections = nil
	} else {
		f.Sections = feed.Distribute(f.Items, state)
	}

	respondJSON(w, http.StatusOK, f)
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	f, err := s.feeds.Feed(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "feed_unavailable", "no feed available", err)
		return
	}

	sections := feed.Distribute(f.Items, s.store.Interactions())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sections":     sections,
		"source":       f.Source,
		"generated_at": f.GeneratedAt,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := s.feeds.Catalog(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "no catalog available", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleInteractions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Interactions())
}

// handleMedia serves cached media bytes by URL, downloading and storing
// on a miss. The X-Cache header reports which path served the request.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		respondError(w, http.StatusBadRequest, "missing_url", "url query parameter is required", nil)
		return
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		respondError(w, http.StatusBadRequest, "invalid_url", "url must be http or https", nil)
		return
	}

	body, meta, hit, err := s.cache.GetOrFetch(r.Context(), url)
	if err != nil {
		respondError(w, http.StatusBadGateway, "media_unavailable", "media fetch failed", err)
		return
	}

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // response write errors are not recoverable
	w.Write(body)
}

// searchItems filters by case-insensitive substring match on title or
// category.
func searchItems(items []models.MediaItem, query string) []models.MediaItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	matched := make([]models.MediaItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), q) ||
			strings.Contains(strings.ToLower(item.Category), q) {
			matched = append(matched, item)
		}
	}
	return matched
}
