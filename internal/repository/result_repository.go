package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrResultNotFound = errors.New("result not found")

// StoredResult is a signed game result as persisted.
type StoredResult struct {
	ID        int64     `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	PlayerID  string    `db:"player_id" json:"player_id"`
	Outcome   string    `db:"outcome" json:"outcome"`
	Token     string    `db:"token" json:"token"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

//go:generate mockgen -source=result_repository.go -destination=mocks/result_repository.go -package=mocks

// ResultRepository stores attested game results.
type ResultRepository interface {
	Save(ctx context.Context, r *StoredResult) error
	FindByID(ctx context.Context, id int64) (*StoredResult, error)
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]StoredResult, error)
}

type sqliteResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new SQLite-based ResultRepository.
func NewResultRepository(db *sqlx.DB) ResultRepository {
	return &sqliteResultRepository{db: db}
}

func (r *sqliteResultRepository) Save(ctx context.Context, res *StoredResult) error {
	ctx, span := tracer.Start(ctx, "ResultRepository.Save")
	defer span.End()

	query := `INSERT INTO game_results (id, session_id, player_id, outcome, token, created_at)
		VALUES (:id, :session_id, :player_id, :outcome, :token, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, res); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

func (r *sqliteResultRepository) FindByID(ctx context.Context, id int64) (*StoredResult, error) {
	ctx, span := tracer.Start(ctx, "ResultRepository.FindByID")
	defer span.End()

	var res StoredResult
	query := `SELECT id, session_id, player_id, outcome, token, created_at FROM game_results WHERE id = ?`
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &res, nil
}

func (r *sqliteResultRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]StoredResult, error) {
	ctx, span := tracer.Start(ctx, "ResultRepository.ListByPlayer")
	defer span.End()

	results := []StoredResult{}
	query := `SELECT id, session_id, player_id, outcome, token, created_at FROM game_results
		WHERE player_id = ? ORDER BY id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &results, query, playerID, limit); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}
