package middleware

import (
	"net/http"
	"strings"

	"designerdada/photo-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAuthMiddleware rejects requests that don't carry a bearer token the
// authorizer accepts
func NewAuthMiddleware(a security.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		if err := a.Authorize(strings.TrimSpace(token)); err != nil {
			zap.L().Debug("Rejected bearer token", zap.String("requestID", requestID), zap.Error(err))

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		c.Next()
	}
}
