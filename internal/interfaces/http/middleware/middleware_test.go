package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-writer-api/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func (f *fakeLimiter) Remaining(context.Context, string, int, time.Duration) (int, error) {
	if f.allow {
		return 4, nil
	}
	return 0, nil
}

// closeNotifyRecorder adds http.CloseNotifier, which gin's Context.Stream requires.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
}

func (closeNotifyRecorder) CloseNotify() <-chan bool { return make(chan bool) }

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(closeNotifyRecorder{w}, req)
	return w
}

func engineWith(mw ...gin.HandlerFunc) *gin.Engine {
	e := gin.New()
	e.Use(mw...)
	e.GET("/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(SubjectKey)})
	})
	e.GET("/v1/panic", func(c *gin.Context) {
		panic("kaboom")
	})
	return e
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed sets headers", func(t *testing.T) {
		limiter := &fakeLimiter{allow: true}
		w := serve(engineWith(RateLimit(RateLimitConfig{Scope: "api", Limit: 5}, limiter)), httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
		require.Len(t, limiter.keys, 1)
		assert.Equal(t, "ratelimit:api:192.0.2.1", limiter.keys[0])
	})

	t.Run("rejected", func(t *testing.T) {
		w := serve(engineWith(RateLimit(RateLimitConfig{Scope: "api", Limit: 5}, &fakeLimiter{})), httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), `"error":"Rate limit exceeded"`)
	})

	t.Run("fails open", func(t *testing.T) {
		w := serve(engineWith(RateLimit(RateLimitConfig{Scope: "api", Limit: 5}, &fakeLimiter{err: errors.New("redis down")})), httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		limiter := &fakeLimiter{}
		w := serve(engineWith(RateLimit(RateLimitConfig{Scope: "api"}, limiter)), httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, limiter.keys)
	})
}

func TestAuth(t *testing.T) {
	cfg := AuthConfig{Enabled: true, Secret: "s3cret", Issuer: "seo-writer-api", Scope: "pipeline"}
	e := engineWith(Auth(cfg))
	jwt := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	t.Run("missing header", func(t *testing.T) {
		w := serve(e, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing authorization header")
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := jwt.GenerateToken("editor", []string{"pipeline"}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := serve(e, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"subject":"editor"}`, w.Body.String())
	})

	t.Run("missing scope", func(t *testing.T) {
		token, err := jwt.GenerateToken("editor", []string{"reports"}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := jwt.GenerateToken("editor", nil, -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := serve(e, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "token expired")
	})
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	w := serve(engineWith(Recovery()), httptest.NewRequest(http.MethodGet, "/v1/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Internal server error"`)
}

func TestRequestIDPropagates(t *testing.T) {
	e := engineWith(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	assert.Equal(t, "req-123", serve(e, req).Header().Get(RequestIDHeader))

	generated := serve(e, httptest.NewRequest(http.MethodGet, "/v1/ping", nil)).Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	for _, bad := range []string{"req id with spaces", strings.Repeat("a", 65), "req\u00e9"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set(RequestIDHeader, bad)
		replaced := serve(e, req).Header().Get(RequestIDHeader)
		assert.NotEqual(t, bad, replaced)
		assert.Len(t, replaced, 36)
	}
}
