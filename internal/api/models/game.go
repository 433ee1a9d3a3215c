package models

import (
	"time"

	"ctchen222/adaptive-tictactoe/internal/game"
)

// StartGameRequest opens a player-vs-AI game. An empty mark picks a side at
// random; difficulty falls back to the player's saved setting.
type StartGameRequest struct {
	Mark       string `json:"mark" binding:"omitempty,mark"`
	Difficulty string `json:"difficulty" binding:"omitempty,difficulty"`
}

// MoveRequest places the player's mark.
type MoveRequest struct {
	Position *int `json:"position" binding:"required,min=0,max=8"`
}

// BotMoveRequest asks the engine for a move on an arbitrary board.
type BotMoveRequest struct {
	Board      []string `json:"board" binding:"required,len=9"`
	Mark       string   `json:"mark" binding:"required,mark"`
	Difficulty string   `json:"difficulty" binding:"omitempty,difficulty"`
}

// BotMoveResponse carries the chosen cell, or -1 when the board is full.
type BotMoveResponse struct {
	Position int `json:"position"`
}

// GameResponse is the client view of a session.
type GameResponse struct {
	ID         string              `json:"id"`
	Mode       string              `json:"mode"`
	HumanMark  game.PlayerMark     `json:"human_mark,omitempty"`
	AIMark     game.PlayerMark     `json:"ai_mark,omitempty"`
	Difficulty string              `json:"difficulty"`
	Board      [][]game.PlayerMark `json:"board"`
	Next       game.PlayerMark     `json:"next,omitempty"`
	Winner     game.PlayerMark     `json:"winner,omitempty"`
	Draw       bool                `json:"draw"`
	MoveCount  int                 `json:"move_count"`
	LastMove   int                 `json:"last_move"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// NewGameResponse builds the client view of s.
func NewGameResponse(s *game.Session) GameResponse {
	r := GameResponse{
		ID:         s.ID,
		Mode:       s.Mode,
		HumanMark:  s.HumanMark,
		AIMark:     s.AIMark,
		Difficulty: s.Difficulty,
		Board:      s.Game.Board.Rows(),
		Winner:     s.Game.Winner,
		Draw:       s.Game.IsDraw(),
		MoveCount:  s.MoveCount,
		LastMove:   s.LastMove,
		UpdatedAt:  s.UpdatedAt,
	}
	if !s.Game.IsOver() {
		r.Next = s.Game.CurrentTurn
	}
	return r
}

// ResultResponse is a stored result with its signature check.
type ResultResponse struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Outcome   string    `json:"outcome"`
	Token     string    `json:"token"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}
