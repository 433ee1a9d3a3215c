package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"ctchen222/adaptive-tictactoe/internal/game"
	"ctchen222/adaptive-tictactoe/internal/memory"
	"ctchen222/adaptive-tictactoe/internal/validator"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bot")

var ErrInvalidMove = errors.New("invalid move")

// DefaultAdaptivityLevel is the probability that medium difficulty consults memory.
const DefaultAdaptivityLevel = 0.7

// Where a chosen move came from, exported as the "source" metric attribute.
const (
	sourceRandom   = "random"
	sourceMemory   = "memory"
	sourceFallback = "fallback"
	sourceSearch   = "search"
	sourceMiss     = ""
)

// Config tunes move selection and reinforcement.
type Config struct {
	AdaptivityLevel float64               `validate:"gte=0,lte=1"`
	Rewards         memory.RewardSchedule `validate:"required"`
}

func DefaultConfig() Config {
	return Config{
		AdaptivityLevel: DefaultAdaptivityLevel,
		Rewards:         memory.DefaultRewardSchedule(),
	}
}

// lockedRand serialises access to a *rand.Rand, which is not safe for
// concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Engine chooses moves for a difficulty tier and reinforces its memory
// tables with outcomes reported by the caller. It is safe for concurrent use
// when the memory stores are.
type Engine struct {
	cfg    Config
	memory memory.Tables
	rng    *lockedRand
	logger *slog.Logger

	moves          metric.Int64Counter
	fallbacks      metric.Int64Counter
	searchDuration metric.Float64Histogram
}

// Option customises an Engine.
type Option func(*Engine)

// WithRand injects the random source used for every random choice.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = &lockedRand{r: r}
	}
}

// WithSeed seeds the engine's random source.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New builds an engine over the given memory tables.
func New(tables memory.Tables, cfg Config, opts ...Option) (*Engine, error) {
	if tables.X == nil || tables.O == nil {
		return nil, errors.New("bot: both memory tables are required")
	}
	if err := validator.GetValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("bot: invalid config: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		memory: tables,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = &lockedRand{r: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))}
	}

	meter := otel.Meter("bot")
	var err error
	if e.moves, err = meter.Int64Counter("bot.moves",
		metric.WithDescription("Moves chosen by the bot, by difficulty and source")); err != nil {
		return nil, err
	}
	if e.fallbacks, err = meter.Int64Counter("bot.memory.fallbacks",
		metric.WithDescription("Memory samples replaced by a random move")); err != nil {
		return nil, err
	}
	if e.searchDuration, err = meter.Float64Histogram("bot.search.duration",
		metric.WithDescription("Time spent in exact search"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return e, nil
}

// Memory returns the tables the engine reads and reinforces.
func (e *Engine) Memory() memory.Tables {
	return e.memory
}

// AiMove picks a move for mark on b. It returns game.NoMove with a nil error
// when the board has no empty cell, and an error wrapping
// game.ErrInvalidBoard or game.ErrInvalidMark for bad input. An unknown
// difficulty plays as Hard. b is never modified.
func (e *Engine) AiMove(ctx context.Context, b game.Board, mark game.PlayerMark, difficulty Difficulty) (int, error) {
	ctx, span := tracer.Start(ctx, "Engine.AiMove", trace.WithAttributes(
		attribute.String("player.mark", string(mark)),
		attribute.String("bot.difficulty", string(difficulty)),
	))
	defer span.End()

	if err := b.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid board")
		return game.NoMove, err
	}
	if !mark.IsPlayer() {
		err := fmt.Errorf("%w: %q", game.ErrInvalidMark, mark)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid mark")
		return game.NoMove, err
	}

	legal := b.LegalMoves()
	if len(legal) == 0 {
		e.logger.WarnContext(ctx, "No available moves", "player.mark", mark, "board.key", b.Key())
		return game.NoMove, nil
	}

	var move int
	var source string
	switch difficulty {
	case Easy:
		move, source = e.randomMove(legal), sourceRandom
	case Medium:
		if e.rng.Float64() < e.cfg.AdaptivityLevel {
			move, source = e.fromMemory(ctx, b, mark, legal)
		}
		if source == sourceMiss {
			move, source = e.randomMove(legal), sourceRandom
		}
	default:
		move, source = e.fromMemory(ctx, b, mark, legal)
		if source == sourceMiss {
			move, source = e.search(ctx, b, mark), sourceSearch
		}
	}

	if !b.IsLegal(move) {
		e.logger.ErrorContext(ctx, "Selected move is not legal", "move", move, "player.mark", mark, "board.key", b.Key())
		span.SetStatus(codes.Error, "illegal move selected")
		return game.NoMove, nil
	}

	span.SetAttributes(attribute.Int("bot.move", move), attribute.String("bot.source", source))
	e.moves.Add(ctx, 1, metric.WithAttributes(
		attribute.String("difficulty", string(difficulty)),
		attribute.String("source", source),
	))
	e.logger.DebugContext(ctx, "Bot chose move", "move", move, "player.mark", mark, "difficulty", difficulty, "source", source)
	return move, nil
}

// RecordOutcome reinforces move in mark's table under the key of b, the
// board as it stood before the move.
func (e *Engine) RecordOutcome(ctx context.Context, b game.Board, move int, mark game.PlayerMark, outcome memory.Outcome) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if !mark.IsPlayer() {
		return fmt.Errorf("%w: %q", game.ErrInvalidMark, mark)
	}
	if !b.IsLegal(move) {
		return fmt.Errorf("%w: cell %d is not open", ErrInvalidMove, move)
	}
	if _, err := memory.ParseOutcome(string(outcome)); err != nil {
		return err
	}

	key := b.Key()
	err := e.memory.For(mark).Update(ctx, key, func(en *memory.Entry) {
		en.Reinforce(move, outcome, e.cfg.Rewards)
	})
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	e.logger.DebugContext(ctx, "Recorded move outcome", "board.key", key, "move", move, "player.mark", mark, "outcome", outcome)
	return nil
}

func (e *Engine) randomMove(legal []int) int {
	return legal[e.rng.IntN(len(legal))]
}

// fromMemory samples mark's table for b. A stale or corrupted entry yields a
// uniformly random legal move; a missing entry yields sourceMiss.
func (e *Engine) fromMemory(ctx context.Context, b game.Board, mark game.PlayerMark, legal []int) (int, string) {
	key := b.Key()
	entry, ok, err := e.memory.For(mark).Get(ctx, key)
	if err != nil {
		e.logger.WarnContext(ctx, "Memory lookup failed, treating as miss", "board.key", key, "error", err)
		return game.NoMove, sourceMiss
	}
	if !ok {
		return game.NoMove, sourceMiss
	}

	move, ok := entry.Sample(e.rng)
	switch {
	case !ok:
		e.logger.WarnContext(ctx, "Corrupted memory entry, falling back to random", "board.key", key,
			"moves", len(entry.Moves), "weights", len(entry.Weights))
	case !b.IsLegal(move):
		e.logger.WarnContext(ctx, "Stale memory move, falling back to random", "board.key", key, "move", move)
	default:
		return move, sourceMemory
	}
	e.fallbacks.Add(ctx, 1)
	return e.randomMove(legal), sourceFallback
}

// search runs exact minimax, picks uniformly among the tied best moves and
// records the decision in mark's table.
func (e *Engine) search(ctx context.Context, b game.Board, mark game.PlayerMark) int {
	start := time.Now()
	best := bestMoves(b, mark)
	e.searchDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	if len(best) == 0 {
		return game.NoMove
	}
	move := best[e.rng.IntN(len(best))]

	after := b
	after.Place(move, mark)
	outcome := memory.Pending
	switch {
	case after.Winner(mark):
		outcome = memory.Win
	case after.IsFull():
		outcome = memory.Draw
	}
	if err := e.RecordOutcome(ctx, b, move, mark, outcome); err != nil {
		e.logger.WarnContext(ctx, "Failed to record searched move", "board.key", b.Key(), "move", move, "error", err)
	}
	return move
}
