package controller

import (
	"context"
	"net/http"

	"ctchen222/adaptive-tictactoe/internal/api/models"
	"ctchen222/adaptive-tictactoe/internal/api/response"
	"ctchen222/adaptive-tictactoe/internal/bot"
	"ctchen222/adaptive-tictactoe/internal/game"

	"github.com/gin-gonic/gin"
)

// MoveChooser picks a move for a board.
type MoveChooser interface {
	AiMove(ctx context.Context, b game.Board, mark game.PlayerMark, difficulty bot.Difficulty) (int, error)
}

// MoveController exposes the engine without a session.
type MoveController struct {
	engine     MoveChooser
	difficulty bot.Difficulty
}

func NewMoveController(engine MoveChooser, def bot.Difficulty) *MoveController {
	return &MoveController{engine: engine, difficulty: def}
}

// BotMove answers with the engine's move for the posted board.
func (mc *MoveController) BotMove(c *gin.Context) {
	var req models.BotMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	board, err := game.ParseBoard(req.Board)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	mark, err := game.ParseMark(req.Mark)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	difficulty := mc.difficulty
	if req.Difficulty != "" {
		if difficulty, err = bot.ParseDifficulty(req.Difficulty); err != nil {
			response.HandleError(c, err)
			return
		}
	}

	move, err := mc.engine.AiMove(c.Request.Context(), board, mark, difficulty)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessResponse(c, models.BotMoveResponse{Position: move})
}
