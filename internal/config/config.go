// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"ctchen222/adaptive-tictactoe/internal/validator"

	"github.com/joho/godotenv"
)

// Memory backends
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

type Config struct {
	HTTPAddr          string  `validate:"required"`
	RedisAddr         string  `validate:"required"`
	SQLitePath        string  `validate:"required"`
	MemoryBackend     string  `validate:"oneof=local redis"`
	MemoryCapacity    int     `validate:"gte=1"`
	AdaptivityLevel   float64 `validate:"gte=0,lte=1"`
	DefaultDifficulty string  `validate:"difficulty"`
	JWTSecret         string  `validate:"required,min=16"`
	AttestPrivateKey  string  `validate:"required"`
	AttestPublicKey   string  `validate:"required"`
	NodeID            int64   `validate:"gte=0,lte=1023"`
	OtelEnabled       bool
	OtelCollectorAddr string `validate:"required_if=OtelEnabled true"`
	LogLevel          slog.Level
	AIDelay           time.Duration `validate:"gte=0"`
	RandomSeed        uint64
}

// Load reads .env files if present, then the environment, and validates
// the result.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	p := parser{}
	cfg := &Config{
		HTTPAddr:          p.str("HTTP_ADDR", ":8080"),
		RedisAddr:         p.str("REDIS_CONNSTRING", "localhost:6379"),
		SQLitePath:        p.str("SQLITE_PATH", "./master.db"),
		MemoryBackend:     strings.ToLower(p.str("MEMORY_BACKEND", BackendLocal)),
		MemoryCapacity:    p.int("MEMORY_CAPACITY", 1000),
		AdaptivityLevel:   p.float("ADAPTIVITY_LEVEL", 0.7),
		DefaultDifficulty: strings.ToLower(p.str("DEFAULT_DIFFICULTY", "medium")),
		JWTSecret:         p.str("JWT_SECRET", ""),
		AttestPrivateKey:  p.str("ATTEST_PRIVATE_KEY", "private_key.pem"),
		AttestPublicKey:   p.str("ATTEST_PUBLIC_KEY", "public_key.pem"),
		NodeID:            int64(p.int("NODE_ID", 1)),
		OtelEnabled:       p.bool("OTEL_ENABLED", false),
		OtelCollectorAddr: p.str("OTEL_COLLECTOR_ADDR", "otel-collector:4317"),
		LogLevel:          p.level("LOG_LEVEL", slog.LevelDebug),
		AIDelay:           p.duration("AI_DELAY", 0),
		RandomSeed:        uint64(p.int("RANDOM_SEED", 0)),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := validator.GetValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return l
}
