package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pomodoro/timerd/internal/errors"
	"pomodoro/timerd/internal/middleware"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}
	if apiErr.Status >= http.StatusInternalServerError {
		// Surfaces the cause in the request log line.
		_ = c.Error(apiErr)
	}
	c.JSON(apiErr.Status, gin.H{"error": apiErr.Body()})
}

func writeInvalidJSON(c *gin.Context) {
	writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
}

// currentUser reads the authenticated user and writes a 401 when it is
// missing.
func currentUser(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		writeError(c, apperrors.Unauthorized(""))
		return "", false
	}
	return userID, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeInvalidJSON(c)
		return false
	}
	return true
}

// bindOptionalJSON decodes the body when there is one. An empty body leaves
// dst untouched.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}
