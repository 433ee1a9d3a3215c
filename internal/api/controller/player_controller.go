package controller

import (
	"ctchen222/adaptive-tictactoe/internal/api/models"
	"ctchen222/adaptive-tictactoe/internal/api/response"
	"ctchen222/adaptive-tictactoe/internal/api/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlayerController handles account HTTP requests.
type PlayerController struct {
	playerService service.PlayerService
}

// NewPlayerController creates a new PlayerController.
func NewPlayerController(playerService service.PlayerService) *PlayerController {
	return &PlayerController{
		playerService: playerService,
	}
}

// Register handles the player registration endpoint.
func (pc *PlayerController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := pc.playerService.Register(c.Request.Context(), &req); err != nil {
		response.HandleError(c, err)
		return
	}

	response.CreatedResponse(c, gin.H{"message": "Player created successfully"})
}

// Login handles the player login endpoint.
func (pc *PlayerController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := pc.playerService.Login(c.Request.Context(), &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessResponse(c, res)
}

// GuestLogin handles guest login, returning a generated player ID and its token.
func (pc *PlayerController) GuestLogin(c *gin.Context) {
	res, err := pc.playerService.GuestLogin(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessResponse(c, res)
}
