package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"whisperwall/infrastructure/http/dto"
	"whisperwall/services"
)

type AuthHandler struct {
	log         *slog.Logger
	authService services.IAuthService
}

func NewAuthHandler(log *slog.Logger, authService services.IAuthService) *AuthHandler {
	return &AuthHandler{log: log, authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WarnContext(c.Request.Context(), "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.Register(req.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.TokenResponse{Token: token.String()})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.Login(req.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token.String()})
}
