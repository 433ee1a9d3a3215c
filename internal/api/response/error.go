package response

import (
	"errors"
	"log/slog"
	"net/http"

	"ctchen222/adaptive-tictactoe/internal/api/service"
	"ctchen222/adaptive-tictactoe/internal/bot"
	"ctchen222/adaptive-tictactoe/internal/game"
	"ctchen222/adaptive-tictactoe/internal/repository"
	"ctchen222/adaptive-tictactoe/internal/session"

	"github.com/gin-gonic/gin"
)

// StatusFor maps a domain error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrWrongMode),
		errors.Is(err, game.ErrGameFinished),
		errors.Is(err, game.ErrCellOccupied),
		errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, game.ErrOutOfRange),
		errors.Is(err, game.ErrInvalidBoard),
		errors.Is(err, game.ErrInvalidMark),
		errors.Is(err, bot.ErrInvalidDifficulty),
		errors.Is(err, bot.ErrInvalidMove):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// HandleError writes err with its mapped status. Unmapped errors are logged
// and reported without detail.
func HandleError(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed", "path", c.FullPath(), "error", err)
		ErrorResponse(c, code, http.StatusText(code))
		return
	}
	ErrorResponse(c, code, err.Error())
}
