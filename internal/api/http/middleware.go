package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"toolshare-backend/internal/config"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/security"
)

const RequestIDHeader = "X-Request-ID"

type claimsKey struct{}

// claimsFromContext returns the access token claims set by AuthMiddleware.
func claimsFromContext(ctx context.Context) (*security.UserClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*security.UserClaims)
	return claims, ok
}

// actorID returns the authenticated user id, or an unauthorized error.
func actorID(r *http.Request) (int32, error) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		return 0, Unauthorized("authentication required")
	}
	return claims.UserID, nil
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		return route.GetName()
	}
	return ""
}

// statusRecorder captures the status code written by the next handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Recovery turns a panic into a 500 response
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "Panic recovered",
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				writeAPIError(w, InternalError())
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// RequestID tags the request context and the response with a request id,
// reusing the caller's when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logger.ContextWith(r.Context(), "request_id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging logs one line per request
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Handler authenticates requests to routes that require an access token.
// It must run inside the router so the matched route name is known.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(routeName(r))

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractToken(r)
		if err != nil {
			writeAPIError(w, Unauthorized(err.Error()))
			return
		}

		claims, err := m.tokenManager.ValidateAccessToken(token)
		if err != nil {
			writeAPIError(w, Unauthorized(fmt.Sprintf("invalid token: %v", err)))
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		ctx = logger.ContextWith(ctx, "user_id", claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization token is not provided")
	}

	token := authHeader
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return token, nil
}
