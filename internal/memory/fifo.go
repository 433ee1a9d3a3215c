package memory

import (
	"context"
	"sync"

	"ctchen222/adaptive-tictactoe/internal/game"
)

// FIFOStore is an in-process Store guarded by a single mutex.
type FIFOStore struct {
	mu       sync.Mutex
	capacity int
	entries  map[game.Key]*Entry
	order    []game.Key // insertion order, oldest first
}

// NewFIFOStore creates a store holding at most capacity keys. A non-positive
// capacity means DefaultCapacity.
func NewFIFOStore(capacity int) *FIFOStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &FIFOStore{
		capacity: capacity,
		entries:  make(map[game.Key]*Entry),
		order:    make([]game.Key, 0, capacity),
	}
}

func (s *FIFOStore) Get(_ context.Context, key game.Key) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	return e.Clone(), true, nil
}

func (s *FIFOStore) Update(_ context.Context, key game.Key, fn func(e *Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		for len(s.entries) >= s.capacity {
			s.evictLocked()
		}
		e = &Entry{}
		s.entries[key] = e
		s.order = append(s.order, key)
	}
	fn(e)
	return nil
}

func (s *FIFOStore) Evict(_ context.Context) (game.Key, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return 0, false, nil
	}
	return s.evictLocked(), true, nil
}

func (s *FIFOStore) evictLocked() game.Key {
	oldest := s.order[0]
	s.order = s.order[1:]
	delete(s.entries, oldest)
	return oldest
}

func (s *FIFOStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *FIFOStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[game.Key]*Entry)
	s.order = make([]game.Key, 0, s.capacity)
	return nil
}
