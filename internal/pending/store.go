// Package pending stages discovered items before they become part of a plan.
// Contents live only as long as the process.
package pending

import (
	"sync"

	"toria/internal/models"
)

// Store is the pending-selection staging buffer. Insertion order is kept.
type Store struct {
	mu    sync.RWMutex
	items []models.PendingItem
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Add stages item. Adding an ID that is already staged is a no-op and
// reports false.
func (s *Store) Add(item models.PendingItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.ID == item.ID {
			return false
		}
	}
	s.items = append(s.items, item)
	return true
}

// Remove unstages the item with the given ID.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.items {
		if existing.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Items returns a copy of the staged items.
func (s *Store) Items() []models.PendingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PendingItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of staged items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
