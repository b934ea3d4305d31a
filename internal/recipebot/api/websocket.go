package api

import (
	"context"
	"net/http"
	"strings"

	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/blueplan/recipebot/internal/recipebot/router"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Frame is one server-to-client WebSocket message.
type Frame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	frameReply = "reply"
	frameError = "error"
)

func newUpgrader(origins []string) *websocket.Upgrader {
	cors := &CORSMiddleware{origins: origins}
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || cors.allowsAny() || cors.isOriginAllowed(origin)
		},
	}
}

// HandleWebSocket upgrades the connection and routes every text frame as one
// message from the user named by the user_id query parameter. Replies are
// written in order before the next frame is read.
func (h *Handler) HandleWebSocket(shutdown context.Context, upgrader *websocket.Upgrader, readLimit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			h.ErrorResponse(c, http.StatusBadRequest, "user_id is required", nil)
			return
		}
		if !h.authorizeUser(c, userID) {
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Warn(c.Request.Context(), "websocket upgrade failed", logx.KV("error", err))
			return
		}
		defer conn.Close()
		if readLimit > 0 {
			conn.SetReadLimit(readLimit)
		}

		// Request contexts are not cancelled on hijacked connections, so the
		// server's shutdown context closes the socket instead.
		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		go func() {
			select {
			case <-shutdown.Done():
				_ = conn.Close()
			case <-ctx.Done():
			}
		}()

		h.logger.Info(ctx, "websocket connected", logx.KV("user", userID))
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Warn(ctx, "websocket read failed", logx.KV("error", err))
				}
				return
			}
			if msgType != websocket.TextMessage {
				if err := conn.WriteJSON(Frame{Type: frameError, Text: "only text messages are supported"}); err != nil {
					return
				}
				continue
			}

			text := string(data)
			replies := h.router.Handle(ctx, router.Message{
				UserID:    userID,
				Text:      text,
				IsCommand: strings.HasPrefix(strings.TrimSpace(text), "/"),
			})
			for _, reply := range replies {
				if err := conn.WriteJSON(Frame{Type: frameReply, Text: reply}); err != nil {
					h.logger.Warn(ctx, "websocket write failed", logx.KV("error", err))
					return
				}
			}
		}
	}
}
