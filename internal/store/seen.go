// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package store

// MarkSeen records that items have been surfaced to the user. The seen
// ledger feeds the cache's unseen-frontier pass. Duplicate ids are no-ops.
func (s *Store) MarkSeen(ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, id := range ids {
		if _, ok := s.seen[id]; !ok {
			s.seen[id] = struct{}{}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.persistSeen()
}

// IsSeen reports whether an item has been surfaced before.
func (s *Store) IsSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

// SeenSet returns a copy of the seen ledger.
func (s *Store) SeenSet() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]struct{}, len(s.seen))
	for id := range s.seen {
		out[id] = struct{}{}
	}
	return out
}
