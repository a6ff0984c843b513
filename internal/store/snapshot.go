// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package store

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/aldahan/feedgarden/internal/models"
)

// CatalogSnapshot is the last successfully fetched catalog, kept so the
// feed keeps working when the upstream source is unreachable.
type CatalogSnapshot struct {
	Items     []models.MediaItem `json:"items"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

// SaveCatalogSnapshot persists a fresh catalog snapshot.
func (s *Store) SaveCatalogSnapshot(items []models.MediaItem) error {
	snap := CatalogSnapshot{
		Items:     items,
		FetchedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode catalog snapshot: %w", err)
	}
	if err := s.setRaw(keyCatalog, raw); err != nil {
		return fmt.Errorf("store: persist catalog snapshot: %w", err)
	}
	return nil
}

// CatalogSnapshot returns the last persisted snapshot, or ErrNoSnapshot
// when nothing has been stored yet.
func (s *Store) CatalogSnapshot() (*CatalogSnapshot, error) {
	raw, err := s.getRaw(keyCatalog)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("store: read catalog snapshot: %w", err)
	}

	var snap CatalogSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("store: decode catalog snapshot: %w", err)
	}
	return &snap, nil
}
