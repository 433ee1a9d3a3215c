// Package session runs games between players and the bot: it applies moves,
// asks the engine for replies, feeds every move back into the engine's
// memory and settles finished games.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ctchen222/adaptive-tictactoe/internal/attest"
	"ctchen222/adaptive-tictactoe/internal/bot"
	"ctchen222/adaptive-tictactoe/internal/events"
	"ctchen222/adaptive-tictactoe/internal/game"
	"ctchen222/adaptive-tictactoe/internal/memory"
	"ctchen222/adaptive-tictactoe/internal/repository"
	"ctchen222/adaptive-tictactoe/internal/stats"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session")

var (
	ErrNotYourTurn = errors.New("not player's turn")
	ErrNotOwner    = errors.New("session belongs to another player")
	ErrWrongMode   = errors.New("operation not allowed in this game mode")
	ErrBotStuck    = errors.New("bot found no legal move")
)

// Outcome names stored with attested results.
const (
	OutcomeHuman = "human"
	OutcomeAI    = "ai"
	OutcomeDraw  = "draw"
)

// MoveCalculator defines an interface for an agent that can calculate a game
// move and learn from the moves played.
type MoveCalculator interface {
	AiMove(ctx context.Context, b game.Board, mark game.PlayerMark, difficulty bot.Difficulty) (int, error)
	RecordOutcome(ctx context.Context, b game.Board, move int, mark game.PlayerMark, outcome memory.Outcome) error
}

// Attestor signs finished results.
type Attestor interface {
	Issue(r attest.Result) (attest.Result, string, error)
}

// Deps are the collaborators of a Manager. Signer and Events are optional.
type Deps struct {
	Engine   MoveCalculator
	Sessions repository.SessionRepository
	Stats    repository.StatsRepository
	Results  repository.ResultRepository
	Tracker  *stats.Tracker
	Signer   Attestor
	Events   events.Publisher
	Logger   *slog.Logger
}

// Manager owns the game flow of every session.
type Manager struct {
	engine   MoveCalculator
	sessions repository.SessionRepository
	stats    repository.StatsRepository
	results  repository.ResultRepository
	tracker  *stats.Tracker
	signer   Attestor
	events   events.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(d Deps) *Manager {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		engine:   d.Engine,
		sessions: d.Sessions,
		stats:    d.Stats,
		results:  d.Results,
		tracker:  d.Tracker,
		signer:   d.Signer,
		events:   d.Events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ply is one placed move, recorded into memory once the session is stored.
type ply struct {
	before  game.Board
	move    int
	mark    game.PlayerMark
	outcome memory.Outcome
}

// Step reports one move of an AI-vs-AI game.
type Step struct {
	SessionID string          `json:"session_id"`
	Mark      game.PlayerMark `json:"mark"`
	Move      int             `json:"move"`
	Board     game.Board      `json:"board"`
	MoveCount int             `json:"move_count"`
	Winner    game.PlayerMark `json:"winner,omitempty"`
	Draw      bool            `json:"draw"`
}

func (m *Manager) newSession(playerID, mode string, human game.PlayerMark, difficulty bot.Difficulty) *game.Session {
	now := m.now()
	s := &game.Session{
		ID:         uuid.New().String(),
		PlayerID:   playerID,
		Mode:       mode,
		HumanMark:  human,
		AIMark:     human.Opponent(),
		Difficulty: string(difficulty),
		Game:       *game.NewGame(),
		LastMove:   game.NoMove,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if mode == game.ModeAIVsAI {
		s.HumanMark = game.None
		s.AIMark = game.None
	}
	return s
}

// Start opens a player-vs-AI game. X moves first, so the bot answers
// immediately when the player takes O.
func (m *Manager) Start(ctx context.Context, playerID string, human game.PlayerMark, difficulty bot.Difficulty) (*game.Session, error) {
	ctx, span := tracer.Start(ctx, "session.Start", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.String("player.mark", string(human)),
		attribute.String("bot.difficulty", string(difficulty)),
	))
	defer span.End()

	if !human.IsPlayer() {
		return nil, fmt.Errorf("%w: %q", game.ErrInvalidMark, human)
	}
	s := m.newSession(playerID, game.ModePlayerVsAI, human, difficulty)

	var plies []ply
	if s.AIMark == s.Game.CurrentTurn {
		p, err := m.aiTurn(ctx, s)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bot failed to open")
			return nil, err
		}
		plies = append(plies, p)
	}

	if err := m.sessions.Create(ctx, s); err != nil {
		span.RecordError(err)
		return nil, err
	}
	m.learn(ctx, plies)
	m.logger.InfoContext(ctx, "Game started", "session.id", s.ID, "player.id", playerID,
		"player.mark", human, "difficulty", difficulty)
	return s, nil
}

// Play applies the player's move and the bot's reply.
func (m *Manager) Play(ctx context.Context, sessionID, playerID string, index int) (*game.Session, error) {
	ctx, span := tracer.Start(ctx, "session.Play", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("player.id", playerID),
		attribute.Int("move", index),
	))
	defer span.End()

	var plies []ply
	updated, err := m.sessions.Update(ctx, sessionID, func(s *game.Session) error {
		plies = plies[:0]
		if s.Mode != game.ModePlayerVsAI {
			return ErrWrongMode
		}
		if s.PlayerID != playerID {
			return ErrNotOwner
		}
		if s.Game.IsOver() {
			return game.ErrGameFinished
		}
		if s.Game.CurrentTurn != s.HumanMark {
			return ErrNotYourTurn
		}

		p, err := m.applyMove(s, index)
		if err != nil {
			return err
		}
		plies = append(plies, p)

		if !s.Game.IsOver() {
			p, err := m.aiTurn(ctx, s)
			if err != nil {
				return err
			}
			plies = append(plies, p)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	m.learn(ctx, plies)
	if updated.Game.IsOver() {
		m.settle(ctx, updated)
	}
	return updated, nil
}

// Get returns a session.
func (m *Manager) Get(ctx context.Context, sessionID string) (*game.Session, error) {
	return m.sessions.FindByID(ctx, sessionID)
}

// Abandon deletes a player's session without settling it.
func (m *Manager) Abandon(ctx context.Context, sessionID, playerID string) error {
	s, err := m.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.PlayerID != playerID {
		return ErrNotOwner
	}
	m.logger.InfoContext(ctx, "Game abandoned", "session.id", sessionID, "player.id", playerID)
	return m.sessions.Delete(ctx, sessionID)
}

// RunAIvsAI plays the bot against itself, reporting every move to onStep
// and waiting delay before each move. It stops early when ctx is done or
// onStep fails.
func (m *Manager) RunAIvsAI(ctx context.Context, playerID string, difficulty bot.Difficulty, delay time.Duration, onStep func(Step) error) (*game.Session, error) {
	ctx, span := tracer.Start(ctx, "session.RunAIvsAI", trace.WithAttributes(
		attribute.String("bot.difficulty", string(difficulty)),
	))
	defer span.End()

	s := m.newSession(playerID, game.ModeAIVsAI, game.None, difficulty)
	if err := m.sessions.Create(ctx, s); err != nil {
		return nil, err
	}

	for !s.Game.IsOver() {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return s, ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return s, err
		}

		p, err := m.aiTurn(ctx, s)
		if err != nil {
			span.RecordError(err)
			return s, err
		}
		m.learn(ctx, []ply{p})

		if onStep != nil {
			step := Step{
				SessionID: s.ID,
				Mark:      p.mark,
				Move:      p.move,
				Board:     s.Game.Board,
				MoveCount: s.MoveCount,
				Winner:    s.Game.Winner,
				Draw:      s.Game.IsDraw(),
			}
			if err := onStep(step); err != nil {
				return s, err
			}
		}
	}

	final := *s
	if _, err := m.sessions.Update(ctx, s.ID, func(stored *game.Session) error {
		*stored = final
		return nil
	}); err != nil {
		return s, err
	}
	m.settle(ctx, s)
	return s, nil
}

// applyMove places the current player's mark and returns the ply to learn.
func (m *Manager) applyMove(s *game.Session, index int) (ply, error) {
	before := s.Game.Board
	mark := s.Game.CurrentTurn
	if err := s.Game.Move(index); err != nil {
		return ply{}, err
	}
	s.MoveCount++
	s.LastMove = index
	s.UpdatedAt = m.now()

	outcome := memory.Pending
	switch {
	case s.Game.Winner == mark:
		outcome = memory.Win
	case s.Game.IsDraw():
		outcome = memory.Draw
	}
	return ply{before: before, move: index, mark: mark, outcome: outcome}, nil
}

func (m *Manager) aiTurn(ctx context.Context, s *game.Session) (ply, error) {
	move, err := m.engine.AiMove(ctx, s.Game.Board, s.Game.CurrentTurn, bot.Difficulty(s.Difficulty))
	if err != nil {
		return ply{}, fmt.Errorf("bot move failed: %w", err)
	}
	if move == game.NoMove {
		return ply{}, ErrBotStuck
	}
	return m.applyMove(s, move)
}

// learn feeds placed moves back into the engine's memory.
func (m *Manager) learn(ctx context.Context, plies []ply) {
	for _, p := range plies {
		if err := m.engine.RecordOutcome(ctx, p.before, p.move, p.mark, p.outcome); err != nil {
			m.logger.WarnContext(ctx, "Failed to record move outcome", "move", p.move, "player.mark", p.mark, "error", err)
		}
	}
}

// settle updates stats, announces the result and, for player games, stores
// a signed result. Failures are logged; the game itself is already over.
func (m *Manager) settle(ctx context.Context, s *game.Session) {
	ctx, span := tracer.Start(ctx, "session.settle", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	side, outcome := stats.None, OutcomeDraw
	if s.Game.Winner != game.None {
		side, outcome = stats.AI, OutcomeAI
		if s.Mode == game.ModePlayerVsAI && s.Game.Winner == s.HumanMark {
			side, outcome = stats.Human, OutcomeHuman
		}
	}

	if m.tracker != nil {
		snap := m.tracker.RecordWinner(side)
		if m.stats != nil {
			if err := m.stats.Save(ctx, snap); err != nil {
				span.RecordError(err)
				m.logger.ErrorContext(ctx, "Failed to save stats", "error", err)
			}
		}
	}

	if m.events != nil {
		payload := events.GameFinishedPayload{
			SessionID: s.ID,
			Mode:      s.Mode,
			Winner:    string(s.Game.Winner),
			Draw:      s.Game.IsDraw(),
			Moves:     s.MoveCount,
		}
		if err := m.events.Publish(ctx, events.TypeGameFinished, payload); err != nil {
			m.logger.WarnContext(ctx, "Failed to publish game result", "session.id", s.ID, "error", err)
		}
	}

	if s.Mode == game.ModePlayerVsAI && m.signer != nil && m.results != nil {
		res, token, err := m.signer.Issue(attest.Result{
			PlayerMark: s.HumanMark,
			AIMark:     s.AIMark,
			Outcome:    outcome,
			Difficulty: s.Difficulty,
		})
		if err != nil {
			span.RecordError(err)
			m.logger.ErrorContext(ctx, "Failed to sign result", "session.id", s.ID, "error", err)
			return
		}
		stored := &repository.StoredResult{
			ID:        res.ID,
			SessionID: s.ID,
			PlayerID:  s.PlayerID,
			Outcome:   outcome,
			Token:     token,
			CreatedAt: res.PlayedAt,
		}
		if err := m.results.Save(ctx, stored); err != nil {
			span.RecordError(err)
			m.logger.ErrorContext(ctx, "Failed to store result", "session.id", s.ID, "error", err)
		}
	}

	m.logger.InfoContext(ctx, "Game finished", "session.id", s.ID, "mode", s.Mode, "outcome", outcome, "moves", s.MoveCount)
}
