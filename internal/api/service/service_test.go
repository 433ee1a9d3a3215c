package service

import (
	"context"
	"testing"
	"time"

	"ctchen222/adaptive-tictactoe/internal/api/models"
	"ctchen222/adaptive-tictactoe/internal/api/repository"
	"ctchen222/adaptive-tictactoe/internal/bot"
	"ctchen222/adaptive-tictactoe/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret-0123456789")

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn))
	return conn
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewPlayerService(repository.NewPlayerRepository(newTestDB(t)), secret)

	require.NoError(t, svc.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "hunter22"}))
	assert.ErrorIs(t, svc.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "other123"}), ErrUsernameTaken)

	res, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "1", res.PlayerID)

	claims, err := svc.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.PlayerID, claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.False(t, claims.Guest)

	_, err = svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "wrong-pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, &models.LoginRequest{Username: "bob", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGuestLogin(t *testing.T) {
	svc := NewPlayerService(repository.NewPlayerRepository(newTestDB(t)), secret)
	a, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)
	b, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.PlayerID, b.PlayerID)

	claims, err := svc.ParseToken(a.Token)
	require.NoError(t, err)
	assert.True(t, claims.Guest)
	assert.Equal(t, a.PlayerID, claims.Subject)
}

func TestParseTokenRejects(t *testing.T) {
	svc := NewPlayerService(nil, secret)
	other := NewPlayerService(nil, []byte("another-secret-9876543210"))
	foreign, err := other.GuestLogin(context.Background())
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "p1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "p1",
	}).SignedString(secret)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"other secret": foreign.Token,
		"expired":      expired,
		"no expiry":    noExpiry,
		"no subject":   noSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(repository.NewSettingsRepository(newTestDB(t)), bot.Medium)

	s, err := svc.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "medium", s.Difficulty)

	d, err := svc.Difficulty(ctx, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, bot.Medium, d)

	_, err = svc.Update(ctx, "p1", &models.SettingsRequest{Difficulty: "Hard"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "p1", &models.SettingsRequest{Difficulty: "easy"})
	require.NoError(t, err)

	s, err = svc.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "easy", s.Difficulty)

	d, err = svc.Difficulty(ctx, "p1", "hard")
	require.NoError(t, err)
	assert.Equal(t, bot.Hard, d, "explicit request wins over the saved setting")

	_, err = svc.Difficulty(ctx, "p1", "expert")
	assert.ErrorIs(t, err, bot.ErrInvalidDifficulty)
	_, err = svc.Update(ctx, "p1", &models.SettingsRequest{Difficulty: "expert"})
	assert.ErrorIs(t, err, bot.ErrInvalidDifficulty)

	other, err := svc.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "medium", other.Difficulty)
}
