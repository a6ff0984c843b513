// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package store persists Feedgarden state in an embedded Badger database:
// the versioned interaction record, the last good catalog snapshot, and the
// seen-item ledger used by the offline cache.
//
// Interaction state is held in memory behind a mutex and written through to
// Badger on every mutation, so a crash loses at most the mutation in flight.
// A missing or undecodable record degrades to the empty state rather than
// failing startup.
package store

import (
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/aldahan/feedgarden/internal/models"
)

// Storage keys. The interactions key carries a schema version suffix;
// bumping it orphans old records instead of corrupting new ones.
const (
	keyInteractions = "interactions:v5"
	keyCatalog      = "catalog:v1"
	keySeen         = "seen:v1"
)

// ErrNoSnapshot is returned when no catalog snapshot has been persisted yet.
var ErrNoSnapshot = errors.New("store: no catalog snapshot")

// Store is the embedded persistence layer.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger

	mu    sync.Mutex
	state models.InteractionState
	seen  map[string]struct{}
}

// Open opens (or creates) the Badger database at path and loads the
// persisted interaction state and seen ledger into memory.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(path string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil) // Badger's own logger is too chatty; we log ourselves

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %s: %w", path, err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
		state:  models.NewInteractionState(),
		seen:   make(map[string]struct{}),
	}

	s.loadState()
	s.loadSeen()

	return s, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying Badger handle so other components (the media
// cache) can share a single database.
func (s *Store) DB() *badger.DB {
	return s.db
}

// loadState restores the interaction record, degrading to the empty state
// when the record is missing or undecodable.
func (s *Store) loadState() {
	raw, err := s.getRaw(keyInteractions)
	if errors.Is(err, badger.ErrKeyNotFound) {
		s.logger.Debug().Msg("no persisted interaction state, starting empty")
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read interaction state, starting empty")
		return
	}

	var state models.InteractionState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt interaction state, starting empty")
		return
	}
	state.Normalize()
	s.state = state
	s.logger.Info().
		Int("liked", len(state.Liked)).
		Int("saved", len(state.Saved)).
		Int("history", len(state.WatchHistory)).
		Msg("interaction state restored")
}

// loadSeen restores the seen ledger, degrading to empty on any failure.
func (s *Store) loadSeen() {
	raw, err := s.getRaw(keySeen)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read seen ledger, starting empty")
		return
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt seen ledger, starting empty")
		return
	}
	for _, id := range ids {
		s.seen[id] = struct{}{}
	}
}

// getRaw reads a single key inside a read transaction.
func (s *Store) getRaw(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// setRaw writes a single key inside a write transaction.
func (s *Store) setRaw(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// persistState writes the current interaction state. Callers must hold mu.
func (s *Store) persistState() error {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("store: encode interaction state: %w", err)
	}
	if err := s.setRaw(keyInteractions, raw); err != nil {
		return fmt.Errorf("store: persist interaction state: %w", err)
	}
	return nil
}

// persistSeen writes the current seen ledger. Callers must hold mu.
func (s *Store) persistSeen() error {
	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("store: encode seen ledger: %w", err)
	}
	if err := s.setRaw(keySeen, raw); err != nil {
		return fmt.Errorf("store: persist seen ledger: %w", err)
	}
	return nil
}
