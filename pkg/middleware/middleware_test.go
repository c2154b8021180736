package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"designerdada/photo-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.Use(handlers...)
	r.Any("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowedOrigin(t *testing.T) {
	allowed := []string{"https://gallery.example", "https://admin.example"}

	assert.Equal(t, "https://admin.example", AllowedOrigin("https://admin.example", allowed))
	assert.Equal(t, "https://gallery.example", AllowedOrigin("https://evil.example", allowed))
	assert.Equal(t, "https://gallery.example", AllowedOrigin("", allowed))
	assert.Equal(t, "*", AllowedOrigin("https://evil.example", []string{"https://gallery.example", "*"}))
	assert.Equal(t, "*", AllowedOrigin("https://evil.example", nil))
}

func TestCORS(t *testing.T) {
	r := newEngine(NewCORSMiddleware([]string{"https://gallery.example"}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://gallery.example")
	w := serve(r, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://gallery.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(r, req)

	assert.Equal(t, "https://gallery.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(NewCORSMiddleware([]string{"*"}))

	w := serve(r, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	r := newEngine()

	first := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Header().Get(RequestIDHeader)
	second := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Header().Get(RequestIDHeader)

	assert.Len(t, first, 10)
	assert.NotEqual(t, first, second)
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine(NewAuthMiddleware(security.PresenceAuthorizer{}))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer ")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestBodySizeLimiter(t *testing.T) {
	r := newEngine(BodySizeLimiter(4))

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2})
	r := newEngine(l.Middleware())

	codes := []int{}
	for range 3 {
		codes = append(codes, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterCleanupStops(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, CleanupInterval: time.Millisecond, TTL: time.Millisecond})
	serve(newEngine(l.Middleware()), httptest.NewRequest(http.MethodGet, "/", nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Cleanup(ctx)
		close(done)
	}()

	// Idle visitors are dropped while the loop runs
	assert.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.visitors) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup kept running after its context was cancelled")
	}
}

func TestRecovery(t *testing.T) {
	r := newEngine(NewRecoveryMiddleware())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
