package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pomodoro/timerd/internal/service"
)

type TimerHandler struct {
	timerService   *service.TimerService
	sessionService *service.SessionService
}

type kindRequest struct {
	Kind string `json:"kind"`
}

func NewTimerHandler(timerService *service.TimerService, sessionService *service.SessionService) *TimerHandler {
	return &TimerHandler{timerService: timerService, sessionService: sessionService}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	snapshot, apiErr := h.timerService.State(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

func (h *TimerHandler) Start(c *gin.Context) {
	var req kindRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.execute(c, service.CommandStart, req.Kind)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	h.execute(c, service.CommandPause, "")
}

func (h *TimerHandler) Resume(c *gin.Context) {
	h.execute(c, service.CommandResume, "")
}

func (h *TimerHandler) Stop(c *gin.Context) {
	h.execute(c, service.CommandStop, "")
}

func (h *TimerHandler) Skip(c *gin.Context) {
	h.execute(c, service.CommandSkip, "")
}

func (h *TimerHandler) ChangeKind(c *gin.Context) {
	var req kindRequest
	if !bindJSON(c, &req) {
		return
	}
	h.execute(c, service.CommandKind, req.Kind)
}

func (h *TimerHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.sessionService.History(c.Request.Context(), userID, limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *TimerHandler) execute(c *gin.Context, command service.Command, kind string) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, apiErr := h.timerService.Execute(c.Request.Context(), userID, command, kind)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}
