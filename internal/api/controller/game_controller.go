package controller

import (
	"context"
	"net/http"

	"ctchen222/adaptive-tictactoe/internal/api/middleware"
	"ctchen222/adaptive-tictactoe/internal/api/models"
	"ctchen222/adaptive-tictactoe/internal/api/response"
	"ctchen222/adaptive-tictactoe/internal/api/service"
	"ctchen222/adaptive-tictactoe/internal/bot"
	"ctchen222/adaptive-tictactoe/internal/game"

	"github.com/gin-gonic/gin"
)

// GameManager runs player-vs-AI sessions.
type GameManager interface {
	Start(ctx context.Context, playerID string, human game.PlayerMark, difficulty bot.Difficulty) (*game.Session, error)
	Play(ctx context.Context, sessionID, playerID string, index int) (*game.Session, error)
	Get(ctx context.Context, sessionID string) (*game.Session, error)
	Abandon(ctx context.Context, sessionID, playerID string) error
}

// GameController handles game session requests.
type GameController struct {
	games    GameManager
	settings service.SettingsService
}

func NewGameController(games GameManager, settings service.SettingsService) *GameController {
	return &GameController{games: games, settings: settings}
}

// Start opens a game with the requested mark and difficulty.
func (gc *GameController) Start(c *gin.Context) {
	var req models.StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	playerID := middleware.PlayerID(c)

	mark := game.RandomMark()
	if req.Mark != "" {
		m, err := game.ParseMark(req.Mark)
		if err != nil {
			response.HandleError(c, err)
			return
		}
		mark = m
	}

	difficulty, err := gc.settings.Difficulty(ctx, playerID, req.Difficulty)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	s, err := gc.games.Start(ctx, playerID, mark, difficulty)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.CreatedResponse(c, models.NewGameResponse(s))
}

func (gc *GameController) Get(c *gin.Context) {
	s, err := gc.games.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessResponse(c, models.NewGameResponse(s))
}

// Move applies the player's move; the response already holds the bot's reply.
func (gc *GameController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	s, err := gc.games.Play(c.Request.Context(), c.Param("id"), middleware.PlayerID(c), *req.Position)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessResponse(c, models.NewGameResponse(s))
}

func (gc *GameController) Abandon(c *gin.Context) {
	if err := gc.games.Abandon(c.Request.Context(), c.Param("id"), middleware.PlayerID(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessResponse(c, gin.H{"message": "Game abandoned"})
}
