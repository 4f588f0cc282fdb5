package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"whisperwall/auth"
	"whisperwall/services"
)

type Handler struct {
	log        *slog.Logger
	chat       services.IChatService
	tokens     auth.TokenManager
	upgrader   gorilla.Upgrader
	bufferSize int
}

// NewHandler serves GET /ws?token=... Every accepted socket becomes one
// relay endpoint for the code of its token.
func NewHandler(log *slog.Logger, chat services.IChatService, tokens auth.TokenManager, bufferSize int) *Handler {
	return &Handler{
		log:    log,
		chat:   chat,
		tokens: tokens,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		bufferSize: bufferSize,
	}
}

func (h *Handler) ServeWS(c *gin.Context) {
	code, err := h.tokens.Validate(c.Query("token"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already answered the client
		h.log.Warn("Upgrade failed", "code", code, "error", err)
		return
	}

	ctx := c.Request.Context()
	connection := NewConnection(h.log, conn, code, h.chat, h.bufferSize)
	if err := h.chat.Connect(ctx, connection); err != nil {
		h.log.Error("Relay refused the endpoint", "code", code, "error", err)
		_ = conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(gorilla.CloseTryAgainLater, err.Error()))
		_ = conn.Close()
		return
	}
	h.log.Info("Endpoint connected", "endpoint", connection.ID(), "code", code)

	go connection.WritePump()
	connection.ReadPump(ctx)
}
