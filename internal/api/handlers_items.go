// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aldahan/feedgarden/internal/models"
)

// progressRequest is the body of POST /items/{id}/progress. Progress
// outside [0, 1] is clamped by the store rather than rejected.
type progressRequest struct {
	Progress *float64 `json:"progress" validate:"required"`
}

func itemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing_id", "item id is required", nil)
		return "", false
	}
	return id, true
}

// notifyInteraction pushes the mutation to connected WebSocket clients.
func (s *Server) notifyInteraction(kind, id string) {
	if s.hub != nil {
		s.hub.BroadcastInteractionsUpdated(kind, id)
	}
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	state, err := s.store.ToggleLike(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to persist interaction", err)
		return
	}
	s.notifyInteraction("like", id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"liked":        state.IsLiked(id),
		"interactions": state,
	})
}

func (s *Server) handleDislike(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	state, err := s.store.Dislike(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to persist interaction", err)
		return
	}
	s.notifyInteraction("dislike", id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"disliked":     state.IsDisliked(id),
		"interactions": state,
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	state, err := s.store.Save(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to persist interaction", err)
		return
	}
	s.notifyInteraction("save", id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"saved":        true,
		"interactions": state,
	})
}

func (s *Server) handleUnsave(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	state, err := s.store.Unsave(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to persist interaction", err)
		return
	}
	s.notifyInteraction("unsave", id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"saved":        false,
		"interactions": state,
	})
}

// handleRestore lifts a dislike, letting the item back into the rails.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	state, err := s.store.RestoreItem(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to persist interaction", err)
		return
	}
	s.notifyInteraction("restore", id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"disliked":     state.IsDisliked(id),
		"interactions": state,
	})
}

// handleImportInteractions replaces the stored state with a client-side
// export. The body is a full interaction state; it is normalized before
// persisting, so duplicate ids and out-of-range progress are tolerated.
func (s *Server) handleImportInteractions(w http.ResponseWriter, r *http.Request) {
	var state models.InteractionState
	if err := decodeBody(r, &state); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", err.Error(), nil)
		return
	}

	imported, err := s.store.Restore(state)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to import interactions", err)
		return
	}
	s.notifyInteraction("import", "")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"interactions": imported,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req progressRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", err.Error(), nil)
		return
	}

	state, err := s.store.RecordProgress(id, *req.Progress)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to persist progress", err)
		return
	}
	s.notifyInteraction("progress", id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"progress":     state.ProgressFor(id),
		"interactions": state,
	})
}
