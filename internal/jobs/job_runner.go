package jobs

import (
	"context"
	"fmt"
	"time"

	"toolshare-backend/internal/config"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/service"
)

// Job names accepted by Run
const (
	JobCompleteFinishedReservations = "complete-finished-reservations"
	JobExpireStalePending           = "expire-stale-pending"
	JobReconcileTrustScores         = "reconcile-trust-scores"
	JobAll                          = "all"
)

const jobTimeout = 10 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Reservation service.ReservationService
	Reputation  service.ReputationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and a deadline.
// Failures are logged here and also returned for one-off runs.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	ctx = logger.ContextWith(ctx, "job", jobName)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Job panicked", "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	start := time.Now()
	logger.InfoContext(ctx, "Starting job")
	if err := jobFunc(ctx); err != nil {
		logger.ErrorContext(ctx, "Job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("job %s: %w", jobName, err)
	}
	logger.InfoContext(ctx, "Job completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Run executes one job by name, or every job for JobAll
func (jr *JobRunner) Run(name string) error {
	switch name {
	case JobCompleteFinishedReservations:
		return jr.CompleteFinishedReservations()
	case JobExpireStalePending:
		return jr.ExpireStalePending()
	case JobReconcileTrustScores:
		return jr.ReconcileTrustScores()
	case JobAll:
		return jr.RunAllNightlyJobs()
	}
	return fmt.Errorf("unknown job %q", name)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution). Every job
// runs even when an earlier one fails.
func (jr *JobRunner) RunAllNightlyJobs() error {
	var firstErr error
	for _, job := range []func() error{
		jr.CompleteFinishedReservations,
		jr.ExpireStalePending,
		jr.ReconcileTrustScores,
	} {
		if err := job(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
