package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ctchen222/adaptive-tictactoe/internal/api/models"

	"github.com/jmoiron/sqlx"
)

// SettingsRepository stores per-player preferences.
type SettingsRepository interface {
	// Get returns nil, nil when the player has saved nothing yet.
	Get(ctx context.Context, playerID string) (*models.Settings, error)
	Save(ctx context.Context, s *models.Settings) error
}

type sqliteSettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new SQLite-based SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &sqliteSettingsRepository{db: db}
}

func (r *sqliteSettingsRepository) Get(ctx context.Context, playerID string) (*models.Settings, error) {
	ctx, span := tracer.Start(ctx, "SettingsRepository.Get")
	defer span.End()

	var s models.Settings
	query := `SELECT player_id, difficulty, updated_at FROM player_settings WHERE player_id = ?`
	if err := r.db.GetContext(ctx, &s, query, playerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &s, nil
}

func (r *sqliteSettingsRepository) Save(ctx context.Context, s *models.Settings) error {
	ctx, span := tracer.Start(ctx, "SettingsRepository.Save")
	defer span.End()

	query := `INSERT INTO player_settings (player_id, difficulty, updated_at)
		VALUES (:player_id, :difficulty, :updated_at)
		ON CONFLICT(player_id) DO UPDATE SET difficulty = excluded.difficulty, updated_at = excluded.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
