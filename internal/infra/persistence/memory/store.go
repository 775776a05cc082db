// Package memory provides an in-memory filterlist.Store for tests and
// ephemeral deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"proteomecore/internal/filterlist"
)

var _ filterlist.Store = (*Store)(nil)

// Store keeps lists in a map keyed by ID.
type Store struct {
	mu    sync.RWMutex
	lists map[int]filterlist.FilterList
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{lists: make(map[int]filterlist.FilterList)}
}

func (s *Store) sorted() []filterlist.FilterList {
	s.mu.RLock()
	out := make([]filterlist.FilterList, 0, len(s.lists))
	for _, l := range s.lists {
		out = append(out, l)
	}
	s.mu.RUnlock()
	filterlist.SortByID(out)
	return out
}

// List returns lists matching q in ID order.
func (s *Store) List(_ context.Context, q filterlist.Query) ([]filterlist.FilterList, error) {
	return q.Apply(s.sorted()), nil
}

// Get returns the list with id.
func (s *Store) Get(_ context.Context, id int) (filterlist.FilterList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[id]
	if !ok {
		return filterlist.FilterList{}, filterlist.NotFound(id)
	}
	return l, nil
}

// Categories returns distinct categories.
func (s *Store) Categories(_ context.Context) ([]string, error) {
	return filterlist.CategoriesOf(s.sorted()), nil
}

// Put inserts or replaces lists.
func (s *Store) Put(_ context.Context, lists ...filterlist.FilterList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lists {
		if l.ID <= 0 {
			return fmt.Errorf("memory: list %q has no id", l.Name)
		}
	}
	for _, l := range lists {
		s.lists[l.ID] = l
	}
	return nil
}

// Delete removes the list with id.
func (s *Store) Delete(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[id]; !ok {
		return false, nil
	}
	delete(s.lists, id)
	return true, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
