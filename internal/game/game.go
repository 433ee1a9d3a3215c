package game

import (
	"errors"
	"math/rand/v2"
)

var (
	ErrGameFinished = errors.New("game already finished")
	ErrOutOfRange   = errors.New("invalid move")
	ErrCellOccupied = errors.New("cell already occupied")
)

// Game is a single match. X always moves first.
type Game struct {
	Board       Board      `json:"board"`
	CurrentTurn PlayerMark `json:"current_turn"`
	Winner      PlayerMark `json:"winner"`
}

func NewGame() *Game {
	return &Game{
		CurrentTurn: PlayerX,
		Winner:      None,
	}
}

// Move places the current player's mark on index and passes the turn.
func (g *Game) Move(index int) error {
	if g.IsOver() {
		return ErrGameFinished
	}
	if index < 0 || index >= BoardSize {
		return ErrOutOfRange
	}
	if g.Board[index] != None {
		return ErrCellOccupied
	}

	g.Board.Place(index, g.CurrentTurn)
	if g.Board.Winner(g.CurrentTurn) {
		g.Winner = g.CurrentTurn
	}
	g.CurrentTurn = g.CurrentTurn.Opponent()
	return nil
}

// IsDraw checks if the game is a draw.
func (g *Game) IsDraw() bool {
	// If there is a winner, it's not a draw
	if g.Winner != None {
		return false
	}
	return g.Board.IsFull()
}

// IsOver reports whether someone has won or the board is full.
func (g *Game) IsOver() bool {
	return g.Winner != None || g.Board.IsFull()
}

// RandomMark picks X or O with equal probability.
func RandomMark() PlayerMark {
	if rand.IntN(2) == 0 {
		return PlayerX
	}
	return PlayerO
}
