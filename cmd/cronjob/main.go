package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"toolshare-backend/internal/config"
	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/jobs"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/queue"
	"toolshare-backend/internal/repository/postgres"
	"toolshare-backend/internal/scheduler"
	"toolshare-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'complete-finished-reservations', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting ToolShare Cronjob Runner...", "log_level", cfg.Log.Level)

	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalf("The cronjob runner needs the postgres driver, got %q", cfg.Database.Driver)
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	emailService := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.RabbitMQ.Enabled {
		publisher := queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		defer publisher.Close()
		events = publisher
	}

	loc := cfg.Booking.Location()
	jobServices := &jobs.Services{
		Reservation: service.NewReservationService(store, emailService, events, func() domain.Date { return domain.Today(loc) }),
		Reputation:  service.NewReputationService(store),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := jobRunner.Run(*runOnce); err != nil {
			logger.Error("Job execution failed", "job", *runOnce, "error", err)
			fmt.Printf("Available jobs:\n")
			for _, name := range []string{jobs.JobCompleteFinishedReservations, jobs.JobExpireStalePending, jobs.JobReconcileTrustScores, jobs.JobAll} {
				fmt.Printf("  - %s\n", name)
			}
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}
