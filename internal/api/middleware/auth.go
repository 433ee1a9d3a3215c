package middleware

import (
	"net/http"
	"strings"

	"ctchen222/adaptive-tictactoe/internal/api/response"
	"ctchen222/adaptive-tictactoe/internal/api/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PlayerIDKey is the gin context key holding the authenticated player ID.
const PlayerIDKey = "player_id"

// Auth requires a valid "Authorization: Bearer <token>" header and stores
// the token's subject under PlayerIDKey.
func Auth(players service.PlayerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.ErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := players.ParseToken(token)
		if err != nil {
			response.HandleError(c, err)
			return
		}
		trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("player.id", claims.Subject))
		c.Set(PlayerIDKey, claims.Subject)
		c.Next()
	}
}

// PlayerID returns the authenticated player ID.
func PlayerID(c *gin.Context) string {
	return c.GetString(PlayerIDKey)
}
