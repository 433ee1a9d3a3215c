package memory

import (
	"errors"
	"fmt"
	"slices"

	"ctchen222/adaptive-tictactoe/internal/game"
)

// Outcome tags a recorded move with what was known when it was recorded.
type Outcome string

const (
	Win     Outcome = "win"
	Draw    Outcome = "draw"
	Pending Outcome = "pending"
)

var ErrInvalidOutcome = errors.New("invalid outcome")

// ParseOutcome validates an outcome name.
func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case Win, Draw, Pending:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
}

// RewardSchedule controls how outcomes translate into move weights.
type RewardSchedule struct {
	InitialWin     float64 `json:"initial_win" validate:"gte=0"`
	InitialDraw    float64 `json:"initial_draw" validate:"gte=0"`
	InitialPending float64 `json:"initial_pending" validate:"gte=0"`
	BonusWin       float64 `json:"bonus_win" validate:"gte=0"`
	BonusDraw      float64 `json:"bonus_draw" validate:"gte=0"`
	BonusPending   float64 `json:"bonus_pending" validate:"gte=0"`
	MaxWeight      float64 `json:"max_weight" validate:"gt=0"`
}

func DefaultRewardSchedule() RewardSchedule {
	return RewardSchedule{
		InitialWin:     1.0,
		InitialDraw:    0.5,
		InitialPending: 0.1,
		BonusWin:       0.5,
		BonusDraw:      0.2,
		BonusPending:   0,
		MaxWeight:      2.0,
	}
}

func (s RewardSchedule) initial(o Outcome) float64 {
	switch o {
	case Win:
		return s.InitialWin
	case Draw:
		return s.InitialDraw
	}
	return s.InitialPending
}

func (s RewardSchedule) bonus(o Outcome) float64 {
	switch o {
	case Win:
		return s.BonusWin
	case Draw:
		return s.BonusDraw
	}
	return s.BonusPending
}

// Entry holds the moves tried from one board state and their weights.
// Moves and Weights are parallel.
type Entry struct {
	Moves   []int     `json:"moves"`
	Weights []float64 `json:"weights"`
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	return Entry{
		Moves:   slices.Clone(e.Moves),
		Weights: slices.Clone(e.Weights),
	}
}

// Valid reports whether the entry can be sampled: non-empty, equal lengths,
// moves on the board and unique, weights non-negative with a positive total.
func (e Entry) Valid() bool {
	if len(e.Moves) == 0 || len(e.Moves) != len(e.Weights) {
		return false
	}
	var seen [game.BoardSize]bool
	total := 0.0
	for i, m := range e.Moves {
		if m < 0 || m >= game.BoardSize || seen[m] {
			return false
		}
		seen[m] = true
		if e.Weights[i] < 0 {
			return false
		}
		total += e.Weights[i]
	}
	return total > 0
}

// Reinforce adds move with its initial weight, or raises an existing move's
// weight by the outcome bonus, capped at MaxWeight.
func (e *Entry) Reinforce(move int, o Outcome, s RewardSchedule) {
	if idx := slices.Index(e.Moves, move); idx >= 0 {
		e.Weights[idx] = min(e.Weights[idx]+s.bonus(o), s.MaxWeight)
		return
	}
	e.Moves = append(e.Moves, move)
	e.Weights = append(e.Weights, min(s.initial(o), s.MaxWeight))
}

// Source is the randomness Sample draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Sample picks a move with probability proportional to its weight.
// It returns false for entries that are not Valid.
func (e Entry) Sample(r Source) (int, bool) {
	if !e.Valid() {
		return game.NoMove, false
	}
	total := 0.0
	for _, w := range e.Weights {
		total += w
	}
	target := r.Float64() * total
	for i, w := range e.Weights {
		if target < w {
			return e.Moves[i], true
		}
		target -= w
	}
	// Floating point residue: fall back to the last move with weight.
	for i := len(e.Weights) - 1; i >= 0; i-- {
		if e.Weights[i] > 0 {
			return e.Moves[i], true
		}
	}
	return game.NoMove, false
}
