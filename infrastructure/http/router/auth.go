package router

import (
	"github.com/gin-gonic/gin"

	"whisperwall/infrastructure/http/handler"
)

func AuthRouter(rg *gin.RouterGroup, h *handler.AuthHandler) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
}
