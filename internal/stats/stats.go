// Package stats keeps process-wide win/loss/draw counters for the bot and
// its human opponents.
package stats

import "sync"

// Side names who won a game. The empty side means a draw.
type Side string

const (
	AI    Side = "ai"
	Human Side = "human"
	None  Side = ""
)

// Record is one side's tally.
type Record struct {
	Wins   int64 `json:"wins" db:"wins"`
	Losses int64 `json:"losses" db:"losses"`
	Draws  int64 `json:"draws" db:"draws"`
}

// Snapshot is a copy of both tallies.
type Snapshot struct {
	AI    Record `json:"ai"`
	Human Record `json:"human"`
}

// Tracker counts results. Counters only ever grow.
type Tracker struct {
	mu    sync.Mutex
	ai    Record
	human Record
}

// NewTracker starts from a previously persisted snapshot.
func NewTracker(from Snapshot) *Tracker {
	return &Tracker{ai: from.AI, human: from.Human}
}

// RecordWinner tallies one finished game.
func (t *Tracker) RecordWinner(winner Side) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch winner {
	case AI:
		t.ai.Wins++
		t.human.Losses++
	case Human:
		t.human.Wins++
		t.ai.Losses++
	default:
		t.ai.Draws++
		t.human.Draws++
	}
	return Snapshot{AI: t.ai, Human: t.human}
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{AI: t.ai, Human: t.human}
}
