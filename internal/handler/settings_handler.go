package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomodoro/timerd/internal/model"
	"pomodoro/timerd/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	settings := h.settingsService.Get(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *SettingsHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.TimerSettings
	if !bindJSON(c, &req) {
		return
	}

	settings, apiErr := h.settingsService.Update(c.Request.Context(), userID, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
