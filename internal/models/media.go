// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package models defines the core domain types shared across Feedgarden:
// catalog media items and the per-user interaction state.
package models

import "time"

// Kind classifies a media item by its aspect ratio.
type Kind string

const (
	// KindShort is portrait-oriented media (height > width).
	KindShort Kind = "short"

	// KindLong is landscape-oriented media.
	KindLong Kind = "long"
)

// KindFromDimensions derives the item kind from pixel dimensions.
// Portrait orientation yields KindShort, everything else KindLong.
// Square items count as long.
func KindFromDimensions(width, height int) Kind {
	if height > width {
		return KindShort
	}
	return KindLong
}

// MediaItem is a single playable entry in the catalog.
type MediaItem struct {
	// ID uniquely identifies the item. For catalog-sourced items this is
	// the upstream public ID.
	ID string `json:"id" validate:"required"`

	// PublicID is the upstream asset identifier used to build delivery URLs.
	PublicID string `json:"publicId"`

	// Title is the display title, taken from the upstream caption when set.
	Title string `json:"title"`

	// Category groups items for presentation (e.g. a series or topic name).
	Category string `json:"category"`

	// Kind is short or long, derived from the asset dimensions.
	Kind Kind `json:"kind" validate:"oneof=short long"`

	// MediaURL is the playable delivery URL.
	MediaURL string `json:"mediaUrl" validate:"required,url"`

	// PosterURL is the first-frame poster image URL.
	PosterURL string `json:"posterUrl"`

	// Tags are the upstream asset tags, in upstream order.
	Tags []string `json:"tags,omitempty"`

	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration,omitempty"`

	// Format is the upstream container format (mp4, webm, ...).
	Format string `json:"format,omitempty"`

	// CreatedAt is the upstream upload time, used for recency ordering.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// IsShort reports whether the item is portrait-oriented.
func (m *MediaItem) IsShort() bool {
	return m.Kind == KindShort
}
