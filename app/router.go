// Package app wires the gallery endpoints into a gin engine
package app

import (
	"context"
	"net/http"
	"time"

	"designerdada/photo-api/app/auth"
	"designerdada/photo-api/app/photo"
	"designerdada/photo-api/app/root"
	"designerdada/photo-api/internal"
	"designerdada/photo-api/pkg/middleware"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Multipart parts bigger than this are spooled to disk by net/http
const multipartMemory = 8 << 20

// NewRouter builds the engine. Background work started for it, such as
// the login rate limiter cleanup, stops when ctx is done.
func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.NewRequestIDMiddleware(),
		middleware.NewCORSMiddleware(d.CORSOrigins),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
		middleware.NewRecoveryMiddleware(),
	)

	router.RedirectTrailingSlash = false
	router.HandleMethodNotAllowed = false
	router.MaxMultipartMemory = multipartMemory

	router.NoRoute(root.NotFound)
	router.NoMethod(root.NotFound)

	authorized := middleware.NewAuthMiddleware(d.Auth)

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Checks a bearer token
		main.GET("/validate", authorized, root.Validate)
	}

	login := []gin.HandlerFunc{middleware.BodySizeLimiter(1 << 20)}
	if d.AuthRateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: d.AuthRateLimit,
			Burst:             d.AuthRateLimit * 2,
			TTL:               5 * time.Minute,
		})
		go limiter.Cleanup(ctx)

		login = append([]gin.HandlerFunc{limiter.Middleware()}, login...)
	}

	// POST /api/auth			-> Exchanges the admin password for a session token
	main.POST("/auth", append(login, func(c *gin.Context) { auth.Login(c, d) })...)

	photos := main.Group("/photos")
	{
		// GET /api/photos		-> Lists the gallery, newest first
		photos.GET("", func(c *gin.Context) { photo.List(c, d) })

		// POST /api/photos		-> Uploads a photo with its metadata
		photos.POST("", authorized, uploadLimit(d.MaxUploadSize), func(c *gin.Context) { photo.Upload(c, d) })

		// DELETE /api/photos/:id	-> Deletes a photo and its files
		photos.DELETE("/:id", authorized, func(c *gin.Context) { photo.Delete(c, d) })

		// DELETE /api/photos/		-> No id given
		photos.DELETE("/", authorized, photo.MissingID)
	}

	return router
}

// uploadLimit leaves room for the multipart envelope and the metadata
// field on top of the file itself
func uploadLimit(maxFileSize int64) gin.HandlerFunc {
	if maxFileSize <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return middleware.BodySizeLimiter(maxFileSize + 1<<20)
}
