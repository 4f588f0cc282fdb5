package handler

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"whisperwall/errors"
)

// respondError maps sentinel errors to HTTP statuses.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, errors.ErrInvalidCode), stderrors.Is(err, errors.ErrInvalidConversation):
		status = http.StatusBadRequest
	case stderrors.Is(err, errors.ErrInvalidCredentials), stderrors.Is(err, errors.ErrInvalidToken):
		status = http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrPostNotFound), stderrors.Is(err, errors.ErrReplyNotFound):
		status = http.StatusNotFound
	case stderrors.Is(err, errors.ErrCodeTaken), stderrors.Is(err, errors.ErrAlreadyReported):
		status = http.StatusConflict
	case stderrors.Is(err, errors.ErrContentRejected):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
