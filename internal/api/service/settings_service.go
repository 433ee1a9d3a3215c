package service

import (
	"context"
	"time"

	"ctchen222/adaptive-tictactoe/internal/api/models"
	"ctchen222/adaptive-tictactoe/internal/api/repository"
	"ctchen222/adaptive-tictactoe/internal/bot"
)

// SettingsService reads and writes a player's difficulty preference.
type SettingsService interface {
	// Get returns the saved settings, or the defaults for a new player.
	Get(ctx context.Context, playerID string) (*models.Settings, error)
	Update(ctx context.Context, playerID string, req *models.SettingsRequest) (*models.Settings, error)
	// Difficulty resolves the difficulty to play at: requested if set,
	// else saved, else the default.
	Difficulty(ctx context.Context, playerID, requested string) (bot.Difficulty, error)
}

type settingsService struct {
	repo     repository.SettingsRepository
	fallback bot.Difficulty
}

// NewSettingsService creates a SettingsService that falls back to def.
func NewSettingsService(repo repository.SettingsRepository, def bot.Difficulty) SettingsService {
	return &settingsService{repo: repo, fallback: def}
}

func (s *settingsService) Get(ctx context.Context, playerID string) (*models.Settings, error) {
	saved, err := s.repo.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return &models.Settings{PlayerID: playerID, Difficulty: string(s.fallback)}, nil
	}
	return saved, nil
}

func (s *settingsService) Update(ctx context.Context, playerID string, req *models.SettingsRequest) (*models.Settings, error) {
	d, err := bot.ParseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}
	settings := &models.Settings{
		PlayerID:   playerID,
		Difficulty: string(d),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *settingsService) Difficulty(ctx context.Context, playerID, requested string) (bot.Difficulty, error) {
	if requested != "" {
		return bot.ParseDifficulty(requested)
	}
	settings, err := s.Get(ctx, playerID)
	if err != nil {
		return "", err
	}
	return bot.ParseDifficulty(settings.Difficulty)
}
