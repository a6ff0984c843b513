// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldahan/feedgarden/internal/config"
	"github.com/aldahan/feedgarden/internal/models"
	"github.com/aldahan/feedgarden/internal/store"
)

// stubSource is a hand-rolled Source for fetcher tests.
type stubSource struct {
	items []models.MediaItem
	err   error
	calls int
}

func (s *stubSource) Fetch(_ context.Context) ([]models.MediaItem, error) {
	s.calls++
	return s.items, s.err
}

func newFetcherStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestFetcherPersistsSnapshotOnSuccess(t *testing.T) {
	st := newFetcherStore(t)
	src := &stubSource{items: []models.MediaItem{{ID: "a", MediaURL: "https://cdn/a.mp4"}}}

	f := NewFetcher(src, st, zerolog.Nop())
	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	snap, err := st.CatalogSnapshot()
	if err != nil {
		t.Fatalf("snapshot not persisted: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].ID != "a" {
		t.Errorf("snapshot items = %+v", snap.Items)
	}
}

func TestFetcherFallsBackToSnapshot(t *testing.T) {
	st := newFetcherStore(t)
	if err := st.SaveCatalogSnapshot([]models.MediaItem{{ID: "cached"}}); err != nil {
		t.Fatalf("SaveCatalogSnapshot: %v", err)
	}

	src := &stubSource{err: errors.New("upstream down")}
	f := NewFetcher(src, st, zerolog.Nop())

	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch should fall back, got error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "cached" {
		t.Errorf("fallback items = %+v", items)
	}
}

func TestFetcherErrorsWithoutSnapshot(t *testing.T) {
	st := newFetcherStore(t)
	src := &stubSource{err: errors.New("upstream down")}

	f := NewFetcher(src, st, zerolog.Nop())
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatalf("Fetch should error when upstream fails and no snapshot exists")
	}
}

func TestFetcherDoesNotMaskCancellation(t *testing.T) {
	st := newFetcherStore(t)
	if err := st.SaveCatalogSnapshot([]models.MediaItem{{ID: "cached"}}); err != nil {
		t.Fatalf("SaveCatalogSnapshot: %v", err)
	}

	src := &stubSource{err: context.Canceled}
	f := NewFetcher(src, st, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("cancellation must not fall back to snapshot, got %v", err)
	}
}

func TestFetcherFallsBackOnUpstreamTimeout(t *testing.T) {
	st := newFetcherStore(t)
	if err := st.SaveCatalogSnapshot([]models.MediaItem{{ID: "cached"}}); err != nil {
		t.Fatalf("SaveCatalogSnapshot: %v", err)
	}

	// A hung upstream behind a short client timeout produces an error
	// matching context.DeadlineExceeded without the caller's context being
	// done. That is exactly the offline case and must serve the snapshot.
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(&config.CatalogConfig{
		CloudName: "demo",
		Tag:       "feed",
		BaseURL:   srv.URL,
		Timeout:   50 * time.Millisecond,
	})
	f := NewFetcher(client, st, zerolog.Nop())

	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch should fall back on upstream timeout, got error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "cached" {
		t.Errorf("fallback items = %+v", items)
	}
}
