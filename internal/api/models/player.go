package models

import "time"

// Player represents a registered player in the database.
type Player struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

// RegisterRequest defines the structure for a player registration request.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Password string `json:"password" binding:"required,min=6,max=50"`
}

// LoginRequest defines the structure for a player login request.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse defines the structure for a successful login response.
type LoginResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"player_id"`
}

// Settings holds a player's saved preferences.
type Settings struct {
	PlayerID   string    `db:"player_id" json:"player_id"`
	Difficulty string    `db:"difficulty" json:"difficulty"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SettingsRequest updates a player's preferences.
type SettingsRequest struct {
	Difficulty string `json:"difficulty" binding:"required,difficulty"`
}
