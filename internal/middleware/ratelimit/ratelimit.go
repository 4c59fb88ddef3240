// Package ratelimit throttles requests per client IP, backed by Redis when
// several instances share a limit and by process memory otherwise.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RedisStore counts requests in fixed windows keyed by identifier.
type RedisStore struct {
	Client  redis.Cmdable
	Limit   int
	Window  time.Duration
	Prefix  string
	Timeout time.Duration
	Log     zerolog.Logger
	Now     func() time.Time
}

func (s *RedisStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RedisStore) key(identifier string) string {
	bucket := s.now().UnixNano() / int64(s.Window)
	return s.Prefix + identifier + ":" + strconv.FormatInt(bucket, 10)
}

// Allow lets the request through when Redis cannot be reached.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	key := s.key(identifier)
	pipe := s.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("rate_limit_store_unavailable")
		return true, nil
	}
	return incr.Val() <= int64(s.Limit), nil
}

func NewMemoryStore(limit int, window time.Duration) middleware.RateLimiterStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
}

func Middleware(store middleware.RateLimiterStore) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "Unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
		},
	})
}
