package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"whisperwall/auth"
	"whisperwall/domain"
	"whisperwall/infrastructure/http/dto"
	"whisperwall/services"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type FeedHandler struct {
	log         *slog.Logger
	feedService services.IFeedService
}

func NewFeedHandler(log *slog.Logger, feedService services.IFeedService) *FeedHandler {
	return &FeedHandler{log: log, feedService: feedService}
}

func (h *FeedHandler) List(c *gin.Context) {
	posts, err := h.feedService.ListPosts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPostResponses(posts))
}

func (h *FeedHandler) Create(c *gin.Context) {
	code, ok := actor(c)
	if !ok {
		return
	}
	var req dto.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.feedService.CreatePost(c.Request.Context(), code, req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToPostResponse(post))
}

func (h *FeedHandler) Like(c *gin.Context) {
	code, ok := actor(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	post, err := h.feedService.LikePost(c.Request.Context(), code, postID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPostResponse(post))
}

func (h *FeedHandler) Report(c *gin.Context) {
	code, ok := actor(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.feedService.ReportPost(c.Request.Context(), code, postID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToReportResponse(result))
}

func (h *FeedHandler) Reply(c *gin.Context) {
	code, ok := actor(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.feedService.AddReply(c.Request.Context(), code, postID, req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToReplyResponse(reply))
}

func (h *FeedHandler) LikeReply(c *gin.Context) {
	code, ok := actor(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	replyID, ok := pathID(c, "replyID")
	if !ok {
		return
	}

	reply, err := h.feedService.LikeReply(c.Request.Context(), code, postID, replyID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToReplyResponse(reply))
}

func (h *FeedHandler) Search(c *gin.Context) {
	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxSearchLimit)
	}

	posts, err := h.feedService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPostResponses(posts))
}

func actor(c *gin.Context) (domain.Code, bool) {
	code, ok := auth.CodeFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	}
	return code, ok
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
