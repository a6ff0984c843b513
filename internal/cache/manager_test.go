// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldahan/feedgarden/internal/config"
	"github.com/aldahan/feedgarden/internal/models"
	"github.com/aldahan/feedgarden/internal/store"
)

func testCacheConfig() *config.CacheConfig {
	return &config.CacheConfig{
		PriorityCount:  2,
		UnseenCount:    1,
		FetchPerSecond: 1000, // effectively unthrottled in tests
		FetchBurst:     100,
		MaxItemBytes:   1 << 20,
		Timeout:        5 * time.Second,
	}
}

func newTestManager(t *testing.T, cfg *config.CacheConfig) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewManager(cfg, st, zerolog.Nop()), st
}

// mediaServer serves fake media bodies and fails ids listed in failing.
func mediaServer(t *testing.T, failing map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/media/")
		if failing[id] {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		fmt.Fprintf(w, "media-body-%s", id)
	}))
}

func mediaURL(srv *httptest.Server, id string) string {
	return srv.URL + "/media/" + id
}

func serverItems(srv *httptest.Server, ids ...string) []models.MediaItem {
	out := make([]models.MediaItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.MediaItem{
			ID:       id,
			Kind:     models.KindShort,
			MediaURL: mediaURL(srv, id),
		})
	}
	return out
}

func TestPrimeCachesHeadAndUnseen(t *testing.T) {
	srv := mediaServer(t, nil)
	defer srv.Close()

	m, st := newTestManager(t, testCacheConfig())
	// c and d are beyond the head; c was already seen, so d gets the
	// single unseen slot.
	if err := st.MarkSeen("c"); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	result := m.Prime(context.Background(), serverItems(srv, "a", "b", "c", "d", "e"))
	if result.Fetched != 3 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 3 fetched", result)
	}

	for _, id := range []string{"a", "b", "d"} {
		if !m.IsCached(mediaURL(srv, id)) {
			t.Errorf("item %q should be cached", id)
		}
	}
	for _, id := range []string{"c", "e"} {
		if m.IsCached(mediaURL(srv, id)) {
			t.Errorf("item %q should not be cached", id)
		}
	}

	// Primed items are marked seen so the frontier advances next pass.
	for _, id := range []string{"a", "b", "d"} {
		if !st.IsSeen(id) {
			t.Errorf("primed item %q not marked seen", id)
		}
	}
	if st.IsSeen("e") {
		t.Errorf("unprimed item marked seen")
	}
}

func TestPrimeSkipsAlreadyCached(t *testing.T) {
	srv := mediaServer(t, nil)
	defer srv.Close()

	m, _ := newTestManager(t, testCacheConfig())
	items := serverItems(srv, "a", "b")

	first := m.Prime(context.Background(), items)
	if first.Fetched != 2 {
		t.Fatalf("first pass = %+v", first)
	}
	second := m.Prime(context.Background(), items)
	if second.Fetched != 0 || second.Skipped != 2 {
		t.Errorf("second pass = %+v, want all skipped", second)
	}
}

func TestPrimeIsolatesFailures(t *testing.T) {
	srv := mediaServer(t, map[string]bool{"b": true})
	defer srv.Close()

	m, _ := newTestManager(t, testCacheConfig())

	result := m.Prime(context.Background(), serverItems(srv, "a", "b"))
	if result.Fetched != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 1 fetched 1 failed", result)
	}
	if !m.IsCached(mediaURL(srv, "a")) {
		t.Errorf("healthy item should be cached despite sibling failure")
	}
	if m.IsCached(mediaURL(srv, "b")) {
		t.Errorf("failed item must not be cached")
	}
}

func TestPrimeRejectsOversizedMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write(make([]byte, 2048)); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	defer srv.Close()

	cfg := testCacheConfig()
	cfg.MaxItemBytes = 1024
	m, _ := newTestManager(t, cfg)

	result := m.Prime(context.Background(), serverItems(srv, "big"))
	if result.Failed != 1 {
		t.Errorf("oversized media should fail the fetch, got %+v", result)
	}
	if m.IsCached(mediaURL(srv, "big")) {
		t.Errorf("oversized media must not be cached")
	}
}

func TestGetRoundTrip(t *testing.T) {
	srv := mediaServer(t, nil)
	defer srv.Close()

	m, _ := newTestManager(t, testCacheConfig())
	m.Prime(context.Background(), serverItems(srv, "a"))

	body, meta, err := m.Get(mediaURL(srv, "a"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "media-body-a" {
		t.Errorf("body = %q", body)
	}
	if meta.ContentType != "video/mp4" {
		t.Errorf("content type = %q", meta.ContentType)
	}
	if meta.Size != int64(len(body)) {
		t.Errorf("meta size = %d, body = %d", meta.Size, len(body))
	}

	if _, _, err := m.Get("https://cdn.example.com/missing.mp4"); !errors.Is(err, ErrNotCached) {
		t.Errorf("Get(missing) = %v, want ErrNotCached", err)
	}
}

func TestGetOrFetch(t *testing.T) {
	srv := mediaServer(t, nil)
	defer srv.Close()

	m, _ := newTestManager(t, testCacheConfig())
	url := mediaURL(srv, "a")

	body, _, hit, err := m.GetOrFetch(context.Background(), url)
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if hit {
		t.Errorf("first access should be a miss")
	}
	if string(body) != "media-body-a" {
		t.Errorf("body = %q", body)
	}

	_, _, hit, err = m.GetOrFetch(context.Background(), url)
	if err != nil {
		t.Fatalf("GetOrFetch (second): %v", err)
	}
	if !hit {
		t.Errorf("second access should be a hit")
	}
}

func TestPurgeDropsStaleMedia(t *testing.T) {
	srv := mediaServer(t, nil)
	defer srv.Close()

	m, _ := newTestManager(t, testCacheConfig())
	m.Prime(context.Background(), serverItems(srv, "a", "b"))

	keep := map[string]struct{}{mediaURL(srv, "a"): {}}
	if err := m.Purge(keep); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if !m.IsCached(mediaURL(srv, "a")) {
		t.Errorf("kept item was purged")
	}
	if m.IsCached(mediaURL(srv, "b")) {
		t.Errorf("stale item survived purge")
	}
}
