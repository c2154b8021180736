package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// AllowedOrigin picks the Access-Control-Allow-Origin value for origin.
// A listed origin is echoed back, otherwise "*" is used if it's listed and
// as a last resort the first configured origin.
func AllowedOrigin(origin string, allowed []string) string {
	if len(allowed) == 0 {
		return "*"
	}

	if origin != "" && slices.Contains(allowed, origin) {
		return origin
	}

	if slices.Contains(allowed, "*") {
		return "*"
	}

	return allowed[0]
}

// NewCORSMiddleware sets the CORS headers on every response, errors
// included, and answers preflight requests directly
func NewCORSMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", AllowedOrigin(c.GetHeader("Origin"), allowed))
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
