package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "pomodoro/timerd/internal/errors"
	"pomodoro/timerd/internal/service"
)

const UserIDContextKey = "userID"

func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, apiErr := bearerToken(c)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		userID, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		c.Set(UserIDContextKey, userID)
		c.Next()
	}
}

// bearerToken reads the Authorization header, or the token query parameter
// since browsers cannot set headers on a websocket handshake.
func bearerToken(c *gin.Context) (string, *apperrors.APIError) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := strings.TrimSpace(c.Query("token")); token != "" {
			return token, nil
		}
		return "", apperrors.Unauthorized("missing authorization header")
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", apperrors.Unauthorized("invalid authorization format")
	}
	return token, nil
}

func UserID(c *gin.Context) string {
	value, ok := c.Get(UserIDContextKey)
	if !ok {
		return ""
	}
	userID, _ := value.(string)
	return userID
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr.Body()})
}
