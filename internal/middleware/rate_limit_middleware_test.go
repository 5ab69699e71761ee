package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/duel-api/internal/pkg/errors"
)

// stubCache — счетчики в памяти вместо Redis
type stubCache struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (s *stubCache) Increment(key string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = make(map[string]int64)
	}
	s.counts[key]++
	return s.counts[key], nil
}

func (s *stubCache) ExpireAt(key string, expiration time.Time) error { return nil }

func (s *stubCache) TTL(key string) (time.Duration, error) { return 30 * time.Second, nil }

func (s *stubCache) SetJSON(key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (s *stubCache) GetJSON(key string, dest interface{}) error { return apperrors.ErrNotFound }

func newLimitedRouter(rl *RateLimiter, cfg RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", rl.LimitByIP(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	// Arrange
	rl := NewRateLimiter(&stubCache{})
	cfg := RateLimitConfig{MaxRequests: 3, Window: time.Minute, KeyPrefix: "rl:test"}
	router := newLimitedRouter(rl, cfg)

	// Act & Assert: первые три запроса проходят
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	// Arrange
	rl := NewRateLimiter(&stubCache{})
	cfg := RateLimitConfig{MaxRequests: 2, Window: time.Minute, KeyPrefix: "rl:test"}
	router := newLimitedRouter(rl, cfg)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Act: третий запрос в том же окне
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	// Assert
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_FailOpenOnCacheError(t *testing.T) {
	// Недоступный кеш не должен блокировать запросы
	rl := NewRateLimiter(&stubCache{err: errors.New("connection refused")})
	cfg := RateLimitConfig{MaxRequests: 1, Window: time.Minute, KeyPrefix: "rl:test"}
	router := newLimitedRouter(rl, cfg)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}
