// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package models

import "time"

// WatchEntry records playback progress for a single item.
type WatchEntry struct {
	// ID is the media item identifier.
	ID string `json:"id"`

	// Progress is the furthest playback position reached, in [0, 1].
	// It only ever moves forward.
	Progress float64 `json:"progress"`

	// RecordedAt is when this entry was last advanced.
	RecordedAt time.Time `json:"recordedAt"`
}

// InteractionState is the full per-user interaction record.
//
// Liked and Disliked are mutually exclusive per item. WatchHistory is
// append-ordered: the most recently watched item is last.
type InteractionState struct {
	Liked        []string     `json:"liked"`
	Disliked     []string     `json:"disliked"`
	Saved        []string     `json:"saved"`
	WatchHistory []WatchEntry `json:"watchHistory"`
}

// NewInteractionState returns an empty state with non-nil slices so the
// JSON encoding is always arrays, never null.
func NewInteractionState() InteractionState {
	return InteractionState{
		Liked:        []string{},
		Disliked:     []string{},
		Saved:        []string{},
		WatchHistory: []WatchEntry{},
	}
}

// Clone returns a deep copy safe to hand to callers while the original
// keeps mutating under a lock.
func (s *InteractionState) Clone() InteractionState {
	out := InteractionState{
		Liked:        make([]string, len(s.Liked)),
		Disliked:     make([]string, len(s.Disliked)),
		Saved:        make([]string, len(s.Saved)),
		WatchHistory: make([]WatchEntry, len(s.WatchHistory)),
	}
	copy(out.Liked, s.Liked)
	copy(out.Disliked, s.Disliked)
	copy(out.Saved, s.Saved)
	copy(out.WatchHistory, s.WatchHistory)
	return out
}

// Normalize repairs a state decoded from storage: nil slices become empty
// and progress values are clamped into [0, 1].
func (s *InteractionState) Normalize() {
	if s.Liked == nil {
		s.Liked = []string{}
	}
	if s.Disliked == nil {
		s.Disliked = []string{}
	}
	if s.Saved == nil {
		s.Saved = []string{}
	}
	if s.WatchHistory == nil {
		s.WatchHistory = []WatchEntry{}
	}
	for i := range s.WatchHistory {
		if s.WatchHistory[i].Progress < 0 {
			s.WatchHistory[i].Progress = 0
		}
		if s.WatchHistory[i].Progress > 1 {
			s.WatchHistory[i].Progress = 1
		}
	}
}

// IsLiked reports whether the item is in the liked set.
func (s *InteractionState) IsLiked(id string) bool { return contains(s.Liked, id) }

// IsDisliked reports whether the item is in the disliked set.
func (s *InteractionState) IsDisliked(id string) bool { return contains(s.Disliked, id) }

// IsSaved reports whether the item is in the saved set.
func (s *InteractionState) IsSaved(id string) bool { return contains(s.Saved, id) }

// ProgressFor returns the recorded progress for an item, or 0 if none.
func (s *InteractionState) ProgressFor(id string) float64 {
	for _, e := range s.WatchHistory {
		if e.ID == id {
			return e.Progress
		}
	}
	return 0
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Remove returns ids with every occurrence of id removed, preserving order.
func Remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
