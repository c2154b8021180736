package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRecoveryMiddleware turns panics into the generic 500 response
func NewRecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		zap.L().Error("Recovered from panic",
			zap.Any("panic", recovered),
			zap.String("requestID", c.GetString("requestID")),
			zap.String("path", c.Request.URL.Path))

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	})
}
