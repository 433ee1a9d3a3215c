package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ctchen222/adaptive-tictactoe/internal/game"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("memory")

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 16

// RedisStore is a Store shared between processes. Each entry is a JSON
// string under "<prefix>:entry:<key>"; "<prefix>:order" is a list of keys
// in insertion order used for eviction.
type RedisStore struct {
	rdb      *redis.Client
	prefix   string
	capacity int
}

// NewRedisStore creates a Redis-backed table. prefix separates tables, for
// example "memory:x" and "memory:o".
func NewRedisStore(rdb *redis.Client, prefix string, capacity int) *RedisStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RedisStore{rdb: rdb, prefix: prefix, capacity: capacity}
}

// NewRedisTables returns the X and O tables under "memory:x" and "memory:o".
func NewRedisTables(rdb *redis.Client, capacity int) Tables {
	return Tables{
		X: NewRedisStore(rdb, "memory:x", capacity),
		O: NewRedisStore(rdb, "memory:o", capacity),
	}
}

func (s *RedisStore) entryKey(key string) string {
	return fmt.Sprintf("%s:entry:%s", s.prefix, key)
}

func (s *RedisStore) orderKey() string {
	return s.prefix + ":order"
}

func (s *RedisStore) Get(ctx context.Context, key game.Key) (Entry, bool, error) {
	ctx, span := tracer.Start(ctx, "RedisStore.Get", trace.WithAttributes(
		attribute.String("memory.table", s.prefix),
		attribute.Int("board.key", int(key)),
	))
	defer span.End()

	raw, err := s.rdb.Get(ctx, s.entryKey(key.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return Entry{}, false, fmt.Errorf("failed to get memory entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("failed to unmarshal memory entry: %w", err)
	}
	return e, true, nil
}

func (s *RedisStore) Update(ctx context.Context, key game.Key, fn func(e *Entry)) error {
	ctx, span := tracer.Start(ctx, "RedisStore.Update", trace.WithAttributes(
		attribute.String("memory.table", s.prefix),
		attribute.Int("board.key", int(key)),
	))
	defer span.End()

	member := key.String()
	entryKey := s.entryKey(member)
	orderKey := s.orderKey()

	txf := func(tx *redis.Tx) error {
		var e Entry
		exists := true
		raw, err := tx.Get(ctx, entryKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			exists = false
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &e); err != nil {
				return fmt.Errorf("failed to unmarshal memory entry: %w", err)
			}
		}

		var evicted []string
		if !exists {
			n, err := tx.LLen(ctx, orderKey).Result()
			if err != nil {
				return err
			}
			if excess := n - int64(s.capacity) + 1; excess > 0 {
				evicted, err = tx.LRange(ctx, orderKey, 0, excess-1).Result()
				if err != nil {
					return err
				}
			}
		}

		fn(&e)
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal memory entry: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, old := range evicted {
				pipe.Del(ctx, s.entryKey(old))
			}
			if len(evicted) > 0 {
				pipe.LTrim(ctx, orderKey, int64(len(evicted)), -1)
			}
			pipe.Set(ctx, entryKey, data, 0)
			if !exists {
				pipe.RPush(ctx, orderKey, member)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, entryKey, orderKey)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		span.RecordError(err)
		return fmt.Errorf("failed to update memory entry: %w", err)
	}
	return fmt.Errorf("failed to update memory entry %s: too much contention", member)
}

func (s *RedisStore) Evict(ctx context.Context) (game.Key, bool, error) {
	ctx, span := tracer.Start(ctx, "RedisStore.Evict")
	defer span.End()

	member, err := s.rdb.LPop(ctx, s.orderKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to pop oldest memory key: %w", err)
	}
	if err := s.rdb.Del(ctx, s.entryKey(member)).Err(); err != nil {
		return 0, false, fmt.Errorf("failed to delete memory entry: %w", err)
	}
	key, err := game.ParseKey(member)
	if err != nil {
		return 0, false, err
	}
	return key, true, nil
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := s.rdb.LLen(ctx, s.orderKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count memory keys: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RedisStore.Clear")
	defer span.End()

	members, err := s.rdb.LRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list memory keys: %w", err)
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, s.entryKey(m))
	}
	keys = append(keys, s.orderKey())
	return s.rdb.Del(ctx, keys...).Err()
}
