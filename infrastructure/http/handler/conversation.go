package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"whisperwall/domain"
	"whisperwall/infrastructure/http/dto"
	"whisperwall/services"
)

type ConversationHandler struct {
	log         *slog.Logger
	chatService services.IChatService
}

func NewConversationHandler(log *slog.Logger, chatService services.IChatService) *ConversationHandler {
	return &ConversationHandler{log: log, chatService: chatService}
}

// Messages returns one page of history with the peer, newest first.
func (h *ConversationHandler) Messages(c *gin.Context) {
	code, ok := actor(c)
	if !ok {
		return
	}
	var cursor *string
	if raw := c.Query("cursor"); raw != "" {
		cursor = &raw
	}

	messages, next, err := h.chatService.History(code, domain.Code(c.Param("peer")), cursor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToMessagesResponse(messages, next))
}
