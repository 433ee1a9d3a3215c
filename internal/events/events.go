package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TypeGameFinished = "game_finished"
)

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// GameFinishedPayload is the payload for the "game_finished" event.
type GameFinishedPayload struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Winner    string `json:"winner,omitempty"`
	Draw      bool   `json:"draw"`
	Moves     int    `json:"moves"`
}

//go:generate mockgen -source=events.go -destination=mocks/events.go -package=mocks

// Publisher sends events to whoever listens.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// RedisPublisher publishes on EventsChannel.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	data, err := Encode(eventType, payload)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// Encode wraps payload into an Event envelope.
func Encode(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}
