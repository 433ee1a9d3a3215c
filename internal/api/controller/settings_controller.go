package controller

import (
	"net/http"

	"ctchen222/adaptive-tictactoe/internal/api/middleware"
	"ctchen222/adaptive-tictactoe/internal/api/models"
	"ctchen222/adaptive-tictactoe/internal/api/response"
	"ctchen222/adaptive-tictactoe/internal/api/service"

	"github.com/gin-gonic/gin"
)

// SettingsController exposes the player's saved difficulty.
type SettingsController struct {
	settings service.SettingsService
}

func NewSettingsController(settings service.SettingsService) *SettingsController {
	return &SettingsController{settings: settings}
}

func (sc *SettingsController) Get(c *gin.Context) {
	s, err := sc.settings.Get(c.Request.Context(), middleware.PlayerID(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessResponse(c, s)
}

func (sc *SettingsController) Update(c *gin.Context) {
	var req models.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	s, err := sc.settings.Update(c.Request.Context(), middleware.PlayerID(c), &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessResponse(c, s)
}
