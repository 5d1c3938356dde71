package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"toolshare-backend/internal/logger"
)

const rateLimitPrefix = "ratelimit:"

// RateLimiter is a fixed-window request counter per client and route
type RateLimiter struct {
	redis    *redis.Client
	requests int
	window   time.Duration
}

func NewRateLimiter(redisClient *redis.Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:    redisClient,
		requests: requests,
		window:   window,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("%s%s:%s", rateLimitPrefix, clientIP(r), routeName(r))
		ctx := r.Context()

		allowed, remaining, err := rl.isAllowed(ctx, key)
		if err != nil {
			// Redis outages must not take the API down
			logger.WarnContext(ctx, "Rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			writeAPIError(w, RateLimited())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) isAllowed(ctx context.Context, key string) (bool, int, error) {
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return true, rl.requests, err
	}
	// The first hit opens the window
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			return true, rl.requests, err
		}
	}

	remaining := max(rl.requests-int(count), 0)
	return int(count) <= rl.requests, remaining, nil
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
