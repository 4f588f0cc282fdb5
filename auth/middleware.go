package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"whisperwall/domain"
)

const codeContextKey = "code"

// RequireToken rejects requests without a valid "Bearer <token>" header and
// stores the authenticated code in the gin context.
func RequireToken(tokens TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token is missing"})
			return
		}
		code, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(codeContextKey, code)
		c.Next()
	}
}

// CodeFromContext returns the code set by RequireToken.
func CodeFromContext(c *gin.Context) (domain.Code, bool) {
	value, ok := c.Get(codeContextKey)
	if !ok {
		return "", false
	}
	code, ok := value.(domain.Code)
	return code, ok
}
