package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_MemoryStore(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(Middleware(NewMemoryStore(2, time.Hour)))
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedisStore_FailsOpen(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	s := &RedisStore{Client: client, Limit: 1, Window: time.Minute, Prefix: "rl:", Log: zerolog.Nop()}
	ok, err := s.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_KeyBuckets(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 1, 10, 0, 30, 0, time.UTC)
	s := &RedisStore{Window: time.Minute, Prefix: "rl:", Now: func() time.Time { return at }}
	k1 := s.key("ip")

	at = at.Add(20 * time.Second)
	assert.Equal(t, k1, s.key("ip"))

	at = at.Add(time.Minute)
	assert.NotEqual(t, k1, s.key("ip"))
}
