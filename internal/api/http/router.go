package http

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"toolshare-backend/internal/security"
	"toolshare-backend/internal/service"
)

// Services bundles the business services exposed over HTTP
type Services struct {
	Reservations service.ReservationService
	Reviews      service.ReviewService
	Tools        service.ToolService
	Users        service.UserService
}

type RouterConfig struct {
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	IdempotencyTTL    time.Duration
}

// NewRouter assembles the API. Rate limiting and idempotency are enabled only
// when redisClient is non-nil.
func NewRouter(svcs Services, tm security.TokenManager, db Pinger, redisClient *redis.Client, cfg RouterConfig) http.Handler {
	v := validator.New(validator.WithRequiredStructEnabled())

	r := mux.NewRouter()
	NewHealthHandler(db).RegisterRoutes(r)
	NewToolHandler(svcs.Tools, svcs.Reviews, svcs.Reservations, v).RegisterRoutes(r)
	NewReservationHandler(svcs.Reservations, v).RegisterRoutes(r)
	NewReviewHandler(svcs.Reviews, v).RegisterRoutes(r)
	NewUserHandler(svcs.Users).RegisterRoutes(r)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, NewAPIError("not_found", "route not found", http.StatusNotFound))
	})

	// Route-aware middleware runs after matching
	if redisClient != nil {
		r.Use(NewRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow).Handler)
	}
	r.Use(NewAuthMiddleware(tm).Handler)
	if redisClient != nil {
		r.Use(NewIdempotencyMiddleware(redisClient, cfg.IdempotencyTTL).Handler)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	return Recovery(RequestID(Logging(corsHandler(r))))
}
