package repository

import (
	"context"
	"fmt"

	"ctchen222/adaptive-tictactoe/internal/stats"

	"github.com/jmoiron/sqlx"
)

//go:generate mockgen -source=stats_repository.go -destination=mocks/stats_repository.go -package=mocks

// StatsRepository persists the win/loss/draw tallies.
type StatsRepository interface {
	Load(ctx context.Context) (stats.Snapshot, error)
	Save(ctx context.Context, snap stats.Snapshot) error
}

type sqliteStatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new SQLite-based StatsRepository.
func NewStatsRepository(db *sqlx.DB) StatsRepository {
	return &sqliteStatsRepository{db: db}
}

type statsRow struct {
	Side string `db:"side"`
	stats.Record
}

// Load returns the stored tallies; missing rows count as zero.
func (r *sqliteStatsRepository) Load(ctx context.Context) (stats.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "StatsRepository.Load")
	defer span.End()

	var rows []statsRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT side, wins, losses, draws FROM stats`); err != nil {
		return stats.Snapshot{}, fmt.Errorf("failed to load stats: %w", err)
	}

	var snap stats.Snapshot
	for _, row := range rows {
		switch stats.Side(row.Side) {
		case stats.AI:
			snap.AI = row.Record
		case stats.Human:
			snap.Human = row.Record
		}
	}
	return snap, nil
}

// Save overwrites both rows in one transaction.
func (r *sqliteStatsRepository) Save(ctx context.Context, snap stats.Snapshot) error {
	ctx, span := tracer.Start(ctx, "StatsRepository.Save")
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin stats transaction: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO stats (side, wins, losses, draws) VALUES (:side, :wins, :losses, :draws)
		ON CONFLICT(side) DO UPDATE SET wins = excluded.wins, losses = excluded.losses, draws = excluded.draws`
	for _, row := range []statsRow{
		{Side: string(stats.AI), Record: snap.AI},
		{Side: string(stats.Human), Record: snap.Human},
	} {
		if _, err := tx.NamedExecContext(ctx, upsert, row); err != nil {
			return fmt.Errorf("failed to save stats: %w", err)
		}
	}
	return tx.Commit()
}
