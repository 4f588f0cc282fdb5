package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"whisperwall/auth"
	"whisperwall/infrastructure/http/handler"
	"whisperwall/infrastructure/websocket"
	"whisperwall/services"
)

type Dependencies struct {
	Log       *slog.Logger
	Auth      services.IAuthService
	Feed      services.IFeedService
	Chat      services.IChatService
	Tokens    auth.TokenManager
	Websocket *websocket.Handler
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if deps.Websocket != nil {
		router.GET("/ws", deps.Websocket.ServeWS)
	}

	v1 := router.Group("/api/v1")
	{
		AuthRouter(v1.Group("/auth"), handler.NewAuthHandler(deps.Log, deps.Auth))

		protected := v1.Group("")
		protected.Use(auth.RequireToken(deps.Tokens))
		PostRouter(protected.Group("/posts"), handler.NewFeedHandler(deps.Log, deps.Feed))
		ConversationRouter(protected.Group("/conversations"), handler.NewConversationHandler(deps.Log, deps.Chat))
	}
}
