package router

import (
	"github.com/gin-gonic/gin"

	"whisperwall/infrastructure/http/handler"
)

func PostRouter(rg *gin.RouterGroup, h *handler.FeedHandler) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/search", h.Search)
	rg.POST("/:id/like", h.Like)
	rg.POST("/:id/report", h.Report)
	rg.POST("/:id/replies", h.Reply)
	rg.POST("/:id/replies/:replyID/like", h.LikeReply)
}
