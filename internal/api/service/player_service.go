package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ctchen222/adaptive-tictactoe/internal/api/models"
	"ctchen222/adaptive-tictactoe/internal/api/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is how long a player token stays valid.
const TokenTTL = 72 * time.Hour

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims identify a player. Subject is the player ID.
type Claims struct {
	Username string `json:"un,omitempty"`
	Guest    bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// PlayerService defines the interface for player-related business logic.
type PlayerService interface {
	Register(ctx context.Context, req *models.RegisterRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GuestLogin(ctx context.Context) (*models.LoginResponse, error)
	ParseToken(token string) (*Claims, error)
}

type playerService struct {
	playerRepo repository.PlayerRepository
	secret     []byte
	now        func() time.Time
}

// NewPlayerService creates a new PlayerService signing tokens with secret.
func NewPlayerService(playerRepo repository.PlayerRepository, secret []byte) PlayerService {
	return &playerService{playerRepo: playerRepo, secret: secret, now: time.Now}
}

// Register handles player registration.
func (s *playerService) Register(ctx context.Context, req *models.RegisterRequest) error {
	existing, err := s.playerRepo.GetPlayerByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}

	player := &models.Player{Username: req.Username}
	return s.playerRepo.CreatePlayer(ctx, player, req.Password)
}

// Login handles player login and returns a JWT on success.
func (s *playerService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	player, err := s.playerRepo.GetPlayerByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	playerID := strconv.FormatInt(player.ID, 10)
	token, err := s.sign(Claims{Username: player.Username}, playerID)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, PlayerID: playerID}, nil
}

// GuestLogin issues a token for a fresh anonymous player ID.
func (s *playerService) GuestLogin(ctx context.Context) (*models.LoginResponse, error) {
	playerID := uuid.New().String()
	token, err := s.sign(Claims{Guest: true}, playerID)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, PlayerID: playerID}, nil
}

func (s *playerService) sign(c Claims, playerID string) (string, error) {
	now := s.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a token and returns its claims.
func (s *playerService) ParseToken(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
