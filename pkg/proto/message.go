// Package proto defines the websocket messages of the AI-vs-AI stream.
package proto

import "ctchen222/adaptive-tictactoe/internal/game"

// Server message types
const (
	TypeStart    = "start"
	TypeMove     = "move"
	TypeGameOver = "game_over"
	TypeError    = "error"
)

// Client message types
const (
	TypeStop = "stop"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type string `json:"type" validate:"required,oneof=stop"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type       string              `json:"type" validate:"required"`
	SessionID  string              `json:"sessionId,omitempty"`
	Difficulty string              `json:"difficulty,omitempty"`
	Reason     string              `json:"reason,omitempty"`
	Mark       game.PlayerMark     `json:"mark,omitempty"`
	Position   *int                `json:"position,omitempty"`
	Board      [][]game.PlayerMark `json:"board,omitempty"`
	Next       game.PlayerMark     `json:"next,omitempty"`
	Winner     game.PlayerMark     `json:"winner,omitempty"`
	Draw       bool                `json:"draw,omitempty"`
}
