// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package store

import (
	"time"

	"github.com/aldahan/feedgarden/internal/metrics"
	"github.com/aldahan/feedgarden/internal/models"
)

// Interactions returns a deep copy of the current interaction state.
func (s *Store) Interactions() models.InteractionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// ToggleLike flips the liked status of an item. Liking an item removes it
// from the disliked set; the two are mutually exclusive.
func (s *Store) ToggleLike(id string) (models.InteractionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsLiked(id) {
		s.state.Liked = models.Remove(s.state.Liked, id)
	} else {
		s.state.Liked = append(s.state.Liked, id)
		s.state.Disliked = models.Remove(s.state.Disliked, id)
	}

	if err := s.persistState(); err != nil {
		return models.InteractionState{}, err
	}
	metrics.InteractionTotal.WithLabelValues("like").Inc()
	return s.state.Clone(), nil
}

// Dislike adds an item to the disliked set and removes it from the liked
// set. Disliking twice is a no-op; RestoreItem is the inverse.
func (s *Store) Dislike(id string) (models.InteractionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsDisliked(id) {
		s.state.Disliked = append(s.state.Disliked, id)
		s.state.Liked = models.Remove(s.state.Liked, id)
		if err := s.persistState(); err != nil {
			return models.InteractionState{}, err
		}
	}
	metrics.InteractionTotal.WithLabelValues("dislike").Inc()
	return s.state.Clone(), nil
}

// Save adds an item to the saved set. Saving twice is a no-op.
func (s *Store) Save(id string) (models.InteractionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsSaved(id) {
		s.state.Saved = append(s.state.Saved, id)
		if err := s.persistState(); err != nil {
			return models.InteractionState{}, err
		}
	}
	metrics.InteractionTotal.WithLabelValues("save").Inc()
	return s.state.Clone(), nil
}

// Unsave removes an item from the saved set. Removing an absent item is a
// no-op.
func (s *Store) Unsave(id string) (models.InteractionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsSaved(id) {
		s.state.Saved = models.Remove(s.state.Saved, id)
		if err := s.persistState(); err != nil {
			return models.InteractionState{}, err
		}
	}
	metrics.InteractionTotal.WithLabelValues("unsave").Inc()
	return s.state.Clone(), nil
}

// RecordProgress advances playback progress for an item. Progress is
// monotonic: a report lower than the stored value keeps the stored value,
// but still marks the item as most recently watched. New items are
// appended; the history keeps the most recent item last.
func (s *Store) RecordProgress(id string, progress float64) (models.InteractionState, error) {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	entry := models.WatchEntry{ID: id, Progress: progress, RecordedAt: now}

	for i, e := range s.state.WatchHistory {
		if e.ID != id {
			continue
		}
		if e.Progress > entry.Progress {
			entry.Progress = e.Progress
		}
		s.state.WatchHistory = append(s.state.WatchHistory[:i], s.state.WatchHistory[i+1:]...)
		break
	}
	s.state.WatchHistory = append(s.state.WatchHistory, entry)

	if err := s.persistState(); err != nil {
		return models.InteractionState{}, err
	}
	metrics.InteractionTotal.WithLabelValues("progress").Inc()
	return s.state.Clone(), nil
}

// RestoreItem removes an item from the disliked set, giving it another
// chance in the feed. Restoring an item that is not disliked is a no-op.
func (s *Store) RestoreItem(id string) (models.InteractionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsDisliked(id) {
		s.state.Disliked = models.Remove(s.state.Disliked, id)
		if err := s.persistState(); err != nil {
			return models.InteractionState{}, err
		}
	}
	metrics.InteractionTotal.WithLabelValues("restore").Inc()
	return s.state.Clone(), nil
}

// Restore replaces the whole interaction state, e.g. from a client-side
// export. The incoming state is normalized before persisting.
func (s *Store) Restore(state models.InteractionState) (models.InteractionState, error) {
	state.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
	if err := s.persistState(); err != nil {
		return models.InteractionState{}, err
	}
	metrics.InteractionTotal.WithLabelValues("restore").Inc()
	return s.state.Clone(), nil
}
