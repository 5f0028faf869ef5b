package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	apperrors "pomodoro/timerd/internal/errors"
	"pomodoro/timerd/internal/middleware"
	"pomodoro/timerd/internal/model"
	"pomodoro/timerd/internal/service"
)

const (
	streamPingInterval = 30 * time.Second
	streamPongWait     = 90 * time.Second
	streamWriteWait    = 10 * time.Second
)

// StreamHandler serves a websocket carrying every timer event of the
// authenticated user. Clients may send commands on the same connection.
type StreamHandler struct {
	timerService *service.TimerService
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	logger       logrus.FieldLogger
}

type streamCommand struct {
	Command string `json:"command"`
	Kind    string `json:"kind"`
}

// streamReply answers a command received over the socket.
type streamReply struct {
	Type     string               `json:"type"`
	Command  string               `json:"command,omitempty"`
	Applied  bool                 `json:"applied"`
	Snapshot *model.TimerSnapshot `json:"snapshot,omitempty"`
	Error    *apperrors.APIError  `json:"error,omitempty"`
}

func NewStreamHandler(timerService *service.TimerService, origins middleware.OriginPolicy, logger logrus.FieldLogger) *StreamHandler {
	return &StreamHandler{
		timerService: timerService,
		upgrader:     websocket.Upgrader{CheckOrigin: origins.CheckOrigin},
		pingInterval: streamPingInterval,
		logger:       logger.WithField("component", "stream"),
	}
}

func (h *StreamHandler) Stream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sub, apiErr := h.timerService.Subscribe(ctx, userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := h.logger.WithField("user_id", userID)
	logger.Debug("stream opened")

	replies := make(chan streamReply, 8)
	stop := make(chan struct{})
	defer close(stop)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.readCommands(ctx, conn, userID, replies, stop, logger)
	}()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			logger.Debug("stream closed by client")
			return
		case event, ok := <-sub.C():
			if !ok {
				h.writeClose(conn, websocket.CloseGoingAway, "timer closed")
				return
			}
			if err := h.writeJSON(conn, event); err != nil {
				return
			}
		case reply := <-replies:
			if err := h.writeJSON(conn, reply); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				logger.WithError(err).Debug("stream ping failed")
				return
			}
		}
	}
}

// readCommands owns the read side of the connection. It returns when the
// client goes away or stops answering pings.
func (h *StreamHandler) readCommands(
	ctx context.Context,
	conn *websocket.Conn,
	userID string,
	replies chan<- streamReply,
	stop <-chan struct{},
	logger logrus.FieldLogger,
) {
	reply := func(r streamReply) bool {
		select {
		case replies <- r:
			return true
		case <-stop:
			return false
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Debug("stream read")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))

		var cmd streamCommand
		var next streamReply
		if err := json.Unmarshal(message, &cmd); err != nil {
			next = streamReply{Type: "error", Error: apperrors.BadRequest("invalid_json", "invalid command message")}
		} else if result, apiErr := h.timerService.Execute(ctx, userID, service.Command(cmd.Command), cmd.Kind); apiErr != nil {
			next = streamReply{Type: "error", Command: cmd.Command, Error: apiErr}
		} else {
			next = streamReply{
				Type:     "result",
				Command:  cmd.Command,
				Applied:  result.Applied,
				Snapshot: &result.Snapshot,
			}
		}
		if !reply(next) {
			return
		}
	}
}

func (h *StreamHandler) writeJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(v); err != nil {
		h.logger.WithError(err).Debug("stream write")
		return err
	}
	return nil
}

func (h *StreamHandler) writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(streamWriteWait),
	)
}
