package models

import "sync"

// Selection is the set of rows selected in one grid, keyed by current id and
// kept in selection order.
type Selection struct {
	mu  sync.Mutex
	ids []string
}

// Set replaces the selection, dropping duplicates.
func (s *Selection) Set(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(ids))
	s.ids = s.ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		s.ids = append(s.ids, id)
	}
}

// IDs returns a copy of the selected ids.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Remove deselects ids.
func (s *Selection) Remove(ids ...string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.ids[:0]
	for _, id := range s.ids {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.ids = kept
}

// Reset clears the selection.
func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
}
