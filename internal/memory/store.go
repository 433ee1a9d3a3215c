// Package memory holds the adaptive move memory: per-board-state weighted
// move distributions, reinforced by game outcomes and bounded by FIFO
// eviction.
package memory

import (
	"context"

	"ctchen222/adaptive-tictactoe/internal/game"
)

// DefaultCapacity is the number of board states a table keeps before it
// starts evicting the oldest-inserted one.
const DefaultCapacity = 1000

// Store is one memory table. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns a copy of the entry for key.
	Get(ctx context.Context, key game.Key) (Entry, bool, error)
	// Update applies fn to the entry for key atomically. A missing entry is
	// created empty first, evicting the oldest-inserted keys if the table is
	// at capacity.
	Update(ctx context.Context, key game.Key, fn func(e *Entry)) error
	// Evict removes the oldest-inserted key.
	Evict(ctx context.Context) (game.Key, bool, error)
	// Len returns the number of keys held.
	Len(ctx context.Context) (int, error)
	// Clear drops every entry.
	Clear(ctx context.Context) error
}

// Tables pairs the two independent memory tables, one per mover.
type Tables struct {
	X Store
	O Store
}

// NewLocalTables returns two in-process FIFO tables with the given capacity.
func NewLocalTables(capacity int) Tables {
	return Tables{
		X: NewFIFOStore(capacity),
		O: NewFIFOStore(capacity),
	}
}

// For returns the table that records moves made by mark.
func (t Tables) For(mark game.PlayerMark) Store {
	if mark == game.PlayerX {
		return t.X
	}
	return t.O
}

// Clear empties both tables.
func (t Tables) Clear(ctx context.Context) error {
	if err := t.X.Clear(ctx); err != nil {
		return err
	}
	return t.O.Clear(ctx)
}
