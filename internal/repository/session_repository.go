package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ctchen222/adaptive-tictactoe/internal/game"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository")

var ErrSessionNotFound = errors.New("session not found")

// sessionTTL bounds how long an idle session survives in Redis.
const sessionTTL = 24 * time.Hour

// Hash fields of a session.
const (
	fieldPlayerID   = "player_id"
	fieldMode       = "mode"
	fieldHumanMark  = "human_mark"
	fieldAIMark     = "ai_mark"
	fieldDifficulty = "difficulty"
	fieldGame       = "game"
	fieldMoveCount  = "move_count"
	fieldLastMove   = "last_move"
	fieldCreatedAt  = "created_at"
	fieldUpdatedAt  = "updated_at"
)

// SessionRepository defines the interface for session state operations.
type SessionRepository interface {
	Create(ctx context.Context, s *game.Session) error
	FindByID(ctx context.Context, id string) (*game.Session, error)
	// Update loads the session, applies fn and stores the result atomically.
	// fn may run more than once under contention.
	Update(ctx context.Context, id string, fn func(s *game.Session) error) (*game.Session, error)
	Delete(ctx context.Context, id string) error
}

type redisSessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new Redis-based SessionRepository.
func NewSessionRepository(rdb *redis.Client) SessionRepository {
	return &redisSessionRepository{rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func sessionFields(s *game.Session) (map[string]any, error) {
	gameJSON, err := json.Marshal(s.Game)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game: %w", err)
	}
	return map[string]any{
		fieldPlayerID:   s.PlayerID,
		fieldMode:       s.Mode,
		fieldHumanMark:  string(s.HumanMark),
		fieldAIMark:     string(s.AIMark),
		fieldDifficulty: s.Difficulty,
		fieldGame:       gameJSON,
		fieldMoveCount:  s.MoveCount,
		fieldLastMove:   s.LastMove,
		fieldCreatedAt:  s.CreatedAt.Format(time.RFC3339Nano),
		fieldUpdatedAt:  s.UpdatedAt.Format(time.RFC3339Nano),
	}, nil
}

func parseSession(id string, data map[string]string) (*game.Session, error) {
	s := &game.Session{
		ID:         id,
		PlayerID:   data[fieldPlayerID],
		Mode:       data[fieldMode],
		HumanMark:  game.PlayerMark(data[fieldHumanMark]),
		AIMark:     game.PlayerMark(data[fieldAIMark]),
		Difficulty: data[fieldDifficulty],
	}
	if err := json.Unmarshal([]byte(data[fieldGame]), &s.Game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}
	var err error
	if s.MoveCount, err = strconv.Atoi(data[fieldMoveCount]); err != nil {
		return nil, fmt.Errorf("bad move count: %w", err)
	}
	if s.LastMove, err = strconv.Atoi(data[fieldLastMove]); err != nil {
		return nil, fmt.Errorf("bad last move: %w", err)
	}
	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, data[fieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("bad created_at: %w", err)
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339Nano, data[fieldUpdatedAt]); err != nil {
		return nil, fmt.Errorf("bad updated_at: %w", err)
	}
	return s, nil
}

// Create stores a new session.
func (r *redisSessionRepository) Create(ctx context.Context, s *game.Session) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Create")
	defer span.End()

	fields, err := sessionFields(s)
	if err != nil {
		return err
	}
	key := sessionKey(s.ID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create session in redis: %w", err)
	}
	return nil
}

// FindByID retrieves a session from Redis.
func (r *redisSessionRepository) FindByID(ctx context.Context, id string) (*game.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.FindByID")
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}
	return parseSession(id, data)
}

// Update applies fn inside a WATCH transaction on the session key.
func (r *redisSessionRepository) Update(ctx context.Context, id string, fn func(s *game.Session) error) (*game.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.Update")
	defer span.End()

	key := sessionKey(id)
	var updated *game.Session
	txf := func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return ErrSessionNotFound
		}
		s, err := parseSession(id, data)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		fields, err := sessionFields(s)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			pipe.Expire(ctx, key, sessionTTL)
			return nil
		})
		if err == nil {
			updated = s
		}
		return err
	}

	for i := 0; i < 8; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		span.RecordError(err)
		return nil, err
	}
	return nil, fmt.Errorf("failed to update session %s: too much contention", id)
}

// Delete removes a session.
func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Delete")
	defer span.End()

	n, err := r.rdb.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// memorySessionRepository keeps sessions in process, for running without
// Redis.
type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]game.Session
}

// NewMemorySessionRepository creates an in-process SessionRepository.
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]game.Session)}
}

func (r *memorySessionRepository) Create(_ context.Context, s *game.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *memorySessionRepository) FindByID(_ context.Context, id string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *memorySessionRepository) Update(_ context.Context, id string, fn func(s *game.Session) error) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := fn(&s); err != nil {
		return nil, err
	}
	r.sessions[id] = s
	return &s, nil
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}
