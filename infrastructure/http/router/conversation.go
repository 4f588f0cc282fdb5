package router

import (
	"github.com/gin-gonic/gin"

	"whisperwall/infrastructure/http/handler"
)

func ConversationRouter(rg *gin.RouterGroup, h *handler.ConversationHandler) {
	rg.GET("/:peer/messages", h.Messages)
}
