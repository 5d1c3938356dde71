package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"toolshare-backend/internal/logger"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyPrefix = "idempotency:"
	idempotencyLock   = 30 * time.Second
)

// idempotentRoutes lists the route names whose responses are replayed for a
// repeated Idempotency-Key.
var idempotentRoutes = map[string]bool{
	"CreateReservation": true,
}

type IdempotencyMiddleware struct {
	redis *redis.Client
	ttl   time.Duration
}

type cachedResponse struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
	BodyHash   string `json:"body_hash"`
}

func NewIdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{redis: redisClient, ttl: ttl}
}

// bodyRecorder captures the response for caching
type bodyRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *bodyRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *bodyRecorder) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// Handler must run after authentication: keys are scoped to the caller.
func (m *IdempotencyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idempotencyKey := r.Header.Get(IdempotencyHeader)
		if idempotencyKey == "" || !idempotentRoutes[routeName(r)] {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := actorID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			writeAPIError(w, BadRequest("failed to read request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		ctx := r.Context()
		bodyHash := hashBody(bodyBytes)
		cacheKey := idempotencyPrefix + routeName(r) + ":" + itoa(userID) + ":" + idempotencyKey

		cached, err := m.getCachedResponse(ctx, cacheKey)
		switch {
		case err == nil:
			replay(w, cached, bodyHash)
			return
		case !errors.Is(err, redis.Nil):
			logger.WarnContext(ctx, "Idempotency cache unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		m.serveLocked(w, r, next, cacheKey, bodyHash)
	})
}

// serveLocked runs next while holding the key's lock and caches a 2xx result.
// A request that finished between the first lookup and the lock is replayed.
func (m *IdempotencyMiddleware) serveLocked(w http.ResponseWriter, r *http.Request, next http.Handler, cacheKey, bodyHash string) {
	ctx := r.Context()
	lockKey := cacheKey + ":lock"

	locked, err := m.redis.SetNX(ctx, lockKey, "1", idempotencyLock).Result()
	if err != nil {
		logger.WarnContext(ctx, "Idempotency lock unavailable", "error", err)
		next.ServeHTTP(w, r)
		return
	}
	if !locked {
		writeAPIError(w, RequestInProgress())
		return
	}
	defer m.redis.Del(context.WithoutCancel(ctx), lockKey)

	if cached, err := m.getCachedResponse(ctx, cacheKey); err == nil {
		replay(w, cached, bodyHash)
		return
	}

	rw := &bodyRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	next.ServeHTTP(rw, r)

	// Cache successful responses (2xx)
	if rw.statusCode >= 200 && rw.statusCode < 300 {
		data, err := json.Marshal(cachedResponse{
			StatusCode: rw.statusCode,
			Body:       rw.body.Bytes(),
			BodyHash:   bodyHash,
		})
		if err == nil {
			err = m.redis.Set(context.WithoutCancel(ctx), cacheKey, data, m.ttl).Err()
		}
		if err != nil {
			logger.WarnContext(ctx, "Failed to cache idempotent response", "error", err)
		}
	}
}

// replay writes a stored response, or a conflict when the key was first used
// with another body.
func replay(w http.ResponseWriter, cached *cachedResponse, bodyHash string) {
	if cached.BodyHash != bodyHash {
		writeAPIError(w, IdempotencyConflict())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

func (m *IdempotencyMiddleware) getCachedResponse(ctx context.Context, key string) (*cachedResponse, error) {
	data, err := m.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func hashBody(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}
