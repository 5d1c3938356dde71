package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	grpcapi "toolshare-backend/internal/api/grpc"
	httpapi "toolshare-backend/internal/api/http"
	"toolshare-backend/internal/config"
	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/queue"
	"toolshare-backend/internal/repository"
	"toolshare-backend/internal/repository/memory"
	"toolshare-backend/internal/repository/postgres"
	"toolshare-backend/internal/security"
	"toolshare-backend/internal/service"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthCheckInterval = 10 * time.Second
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting ToolShare Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Storage
	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Initialize Email Service
	emailSvc := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)

	// Initialize Event Publisher
	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.RabbitMQ.Enabled {
		publisher := queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		defer publisher.Close()
		events = publisher
		logger.Info("Publishing domain events", "exchange", cfg.RabbitMQ.Exchange)
	}

	// Initialize Redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not reachable, idempotency and rate limiting degrade to pass-through", "addr", cfg.Redis.Addr, "error", err)
		} else {
			logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
		}
	}

	// Initialize Services
	loc := cfg.Booking.Location()
	today := func() domain.Date { return domain.Today(loc) }

	svcs := httpapi.Services{
		Reservations: service.NewReservationService(store, emailSvc, events, today),
		Reviews:      service.NewReviewService(store, events),
		Tools:        service.NewToolService(store),
		Users:        service.NewUserService(store.Users()),
	}

	router := httpapi.NewRouter(svcs, tokenManager, store, redisClient, httpapi.RouterConfig{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RateLimitRequests: cfg.Redis.RateLimitRequests,
		RateLimitWindow:   cfg.Redis.RateLimitWindow(),
		IdempotencyTTL:    cfg.Redis.IdempotencyTTL(),
	})

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Set up gRPC health server
	var monitorDone chan struct{}
	grpcAddr := cfg.GetGRPCAddress()
	monitor := grpcapi.NewHealthMonitor(store, healthCheckInterval)
	grpcServer := grpcapi.NewServer(monitor)
	if grpcAddr != "" {
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", grpcAddr)
			log.Fatalf("Failed to listen: %v", err)
		}

		monitorDone = make(chan struct{})
		go func() {
			defer close(monitorDone)
			monitor.Run(ctx)
		}()

		go func() {
			logger.Info("gRPC health server listening", "address", grpcAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server error", "error", err)
		stop()
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	if monitorDone != nil {
		<-monitorDone
	}
	logger.Info("Server stopped. Goodbye!")
}

// openStore connects the configured storage backend. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func()) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore(), func() {}
	}

	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	return postgres.NewStore(db), func() { _ = db.Close() }
}
