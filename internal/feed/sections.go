// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package feed

import (
	"github.com/aldahan/feedgarden/internal/models"
)

// Section is one rail of the rendered feed.
type Section struct {
	ID    string             `json:"id"`
	Title string             `json:"title"`
	Kind  models.Kind        `json:"kind"`
	Items []models.MediaItem `json:"items"`
}

// Continue-watching bounds: items barely started or nearly finished are
// not worth resuming.
const (
	resumeMinProgress = 0.05
	resumeMaxProgress = 0.95
)

// railSpec describes one deterministic slice of the short or long cursor.
type railSpec struct {
	id       string
	title    string
	kind     models.Kind
	count    int
	fromTail bool
	reversed bool
}

// railLayout is the fixed rail plan. Shorts are consumed front to back
// across rails via a cursor; the "insight" rail takes longs from the tail.
var railLayout = []railSpec{
	{id: "quick_picks", title: "Quick Picks", kind: models.KindShort, count: 4},
	{id: "featured_longs", title: "Featured", kind: models.KindLong, count: 3},
	{id: "intense_dose", title: "Intense Dose", kind: models.KindShort, count: 4},
	{id: "happy_trip", title: "Happy Trip", kind: models.KindShort, count: 8},
	{id: "insight", title: "Insight", kind: models.KindLong, count: 10, fromTail: true, reversed: true},
	{id: "new_adventure", title: "New Adventure", kind: models.KindShort, count: 10, reversed: true},
}

// Distribute splits ordered items into the fixed rail layout. Disliked
// items are excluded from the cursor rails. Those rails never share an
// item: each consumes its slice of the short or long cursor. Empty rails
// are omitted. Same input, same output; there is no randomness here.
func Distribute(items []models.MediaItem, state models.InteractionState) []Section {
	var shorts, longs []models.MediaItem
	for i := range items {
		if state.IsDisliked(items[i].ID) {
			continue
		}
		if items[i].IsShort() {
			shorts = append(shorts, items[i])
		} else {
			longs = append(longs, items[i])
		}
	}

	sections := make([]Section, 0, len(railLayout)+1)
	shortCursor, longHead, longTail := 0, 0, len(longs)

	for _, spec := range railLayout {
		var slice []models.MediaItem

		switch {
		case spec.kind == models.KindShort:
			end := shortCursor + spec.count
			if end > len(shorts) {
				end = len(shorts)
			}
			slice = shorts[shortCursor:end]
			shortCursor = end
		case spec.fromTail:
			start := longTail - spec.count
			if start < longHead {
				start = longHead
			}
			slice = longs[start:longTail]
			longTail = start
		default:
			end := longHead + spec.count
			if end > longTail {
				end = longTail
			}
			slice = longs[longHead:end]
			longHead = end
		}

		if len(slice) == 0 {
			continue
		}
		rail := make([]models.MediaItem, len(slice))
		copy(rail, slice)
		if spec.reversed {
			reverse(rail)
		}
		sections = append(sections, Section{
			ID:    spec.id,
			Title: spec.title,
			Kind:  spec.kind,
			Items: rail,
		})
	}

	if cw := continueWatching(items, state); len(cw) > 0 {
		sections = append(sections, Section{
			ID:    "continue_watching",
			Title: "Continue Watching",
			Kind:  models.KindLong,
			Items: cw,
		})
	}

	return sections
}

// continueWatching derives the resume rail from watch history: most recent
// first, one entry per item, only items mid-watch. History entries may
// reference an item by id or by media URL, and are resolved against the
// unfiltered item set; this rail is allowed to overlap the cursor rails.
func continueWatching(items []models.MediaItem, state models.InteractionState) []models.MediaItem {
	byKey := make(map[string]int, len(items)*2)
	for i := range items {
		byKey[items[i].ID] = i
		if items[i].MediaURL != "" {
			byKey[items[i].MediaURL] = i
		}
	}

	seen := make(map[string]struct{}, len(state.WatchHistory))
	out := make([]models.MediaItem, 0, len(state.WatchHistory))

	// History keeps the most recent entry last, so walk it backwards.
	for i := len(state.WatchHistory) - 1; i >= 0; i-- {
		e := state.WatchHistory[i]
		if e.Progress <= resumeMinProgress || e.Progress >= resumeMaxProgress {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		idx, ok := byKey[e.ID]
		if !ok {
			// History can reference items that left the catalog.
			continue
		}
		out = append(out, items[idx])
	}
	return out
}

func reverse(items []models.MediaItem) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
