package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ctchen222/adaptive-tictactoe/internal/api/models"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"
)

var tracer = otel.Tracer("api.repository")

// PlayerRepository defines the interface for player data operations.
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, player *models.Player, password string) error
	GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error)
}

type sqlitePlayerRepository struct {
	db *sqlx.DB
}

// NewPlayerRepository creates a new SQLite-based PlayerRepository.
func NewPlayerRepository(db *sqlx.DB) PlayerRepository {
	return &sqlitePlayerRepository{db: db}
}

// CreatePlayer hashes the password and inserts a new player into the database.
func (r *sqlitePlayerRepository) CreatePlayer(ctx context.Context, player *models.Player, password string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.CreatePlayer")
	defer span.End()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	player.PasswordHash = string(hashedPassword)

	query := `INSERT INTO players (username, password_hash) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, player.Username, player.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	if player.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read player id: %w", err)
	}
	return nil
}

// GetPlayerByUsername retrieves a player by username. A missing player is
// reported as nil, nil.
func (r *sqlitePlayerRepository) GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error) {
	ctx, span := tracer.Start(ctx, "PlayerRepository.GetPlayerByUsername")
	defer span.End()

	var player models.Player
	query := `SELECT id, username, password_hash FROM players WHERE username = ?`
	err := r.db.GetContext(ctx, &player, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player by username: %w", err)
	}
	return &player, nil
}
