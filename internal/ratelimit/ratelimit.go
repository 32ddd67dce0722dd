// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ratelimit throttles the verification code endpoints.
package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/treenza/storefront/internal/i18n"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Window is the length of one counting period.
const Window = time.Minute

// RedisStore counts requests per identifier in fixed windows shared by all instances.
type RedisStore struct {
	rdb     *redis.Client
	prefix  string
	limit   int64
	timeout time.Duration
	now     func() time.Time
}

func NewRedisStore(rdb *redis.Client, prefix string, perWindow int) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, limit: int64(perWindow), timeout: time.Second, now: time.Now}
}

// Allow implements middleware.RateLimiterStore. Redis errors let the request through.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	key := fmt.Sprintf("%s:%s:%d", s.prefix, identifier, s.now().Unix()/int64(Window.Seconds()))

	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("rate_limit_store_error", "error", err)
		return true, nil
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, key, Window).Err(); err != nil {
			slog.Warn("rate_limit_store_error", "error", err)
		}
	}
	return count <= s.limit, nil
}

// NewStore returns a Redis store when redisURL is set, an in-process store otherwise.
// The returned close function releases the Redis client.
func NewStore(redisURL string, perWindow int) (middleware.RateLimiterStore, func() error, error) {
	if redisURL == "" {
		store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perWindow) / Window.Seconds()),
			Burst:     perWindow,
			ExpiresIn: 3 * Window,
		})
		return store, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	return NewRedisStore(rdb, "otp", perWindow), rdb.Close, nil
}

// Middleware limits requests per route, client IP and the email in the JSON body.
func Middleware(store middleware.RateLimiterStore) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store:               store,
		IdentifierExtractor: identifier,
		ErrorHandler: func(c echo.Context, _ error) error {
			return deny(c)
		},
		DenyHandler: func(c echo.Context, id string, _ error) error {
			slog.Warn("rate_limited", "identifier", id, "path", c.Path())
			return deny(c)
		},
	})
}

func deny(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"success": false,
		"message": i18n.T(c.Request().Context(), "err_rate_limited"),
	})
}

// identifier keys on route, client IP and the email in the body. The body is
// restored for the handler.
func identifier(c echo.Context) (string, error) {
	id := c.Path() + "|" + c.RealIP()

	req := c.Request()
	if req.Body == nil {
		return id, nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return id, nil
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Email != "" {
		id += "|" + strings.ToLower(strings.TrimSpace(payload.Email))
	}
	return id, nil
}
