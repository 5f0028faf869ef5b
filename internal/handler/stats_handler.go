package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomodoro/timerd/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) Daily(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	date, apiErr := h.statsService.ParseDate(c.Query("date"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	stats, apiErr := h.statsService.Daily(c.Request.Context(), userID, date)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *StatsHandler) Weekly(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	date, apiErr := h.statsService.ParseDate(c.Query("date"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	days, apiErr := h.statsService.Weekly(c.Request.Context(), userID, date)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

func (h *StatsHandler) Today(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, apiErr := h.statsService.Today(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *StatsHandler) AllTime(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, apiErr := h.statsService.AllTime(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
