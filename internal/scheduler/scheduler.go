package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"toolshare-backend/internal/jobs"
	"toolshare-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner. Specs
// are evaluated in the booking time zone so "after midnight" matches the
// calendar used for reservations.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// Create cron with seconds precision
	c := cron.New(
		cron.WithLocation(jobRunner.Config().Booking.Location()),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	entries := []struct {
		name string
		spec string
		run  func() error
	}{
		{jobs.JobCompleteFinishedReservations, cfg.CompleteFinishedReservations, s.jobs.CompleteFinishedReservations},
		{jobs.JobExpireStalePending, cfg.ExpireStalePending, s.jobs.ExpireStalePending},
		{jobs.JobReconcileTrustScores, cfg.ReconcileTrustScores, s.jobs.ReconcileTrustScores},
	}

	for _, e := range entries {
		run := e.run
		// Failures are logged by the job runner
		if _, err := s.cron.AddFunc(e.spec, func() { _ = run() }); err != nil {
			logger.Error("Failed to register job", "job", e.name, "spec", e.spec, "error", err)
			return fmt.Errorf("register job %s: %w", e.name, err)
		}
		logger.Debug("Registered job", "job", e.name, "spec", e.spec)
	}

	logger.Info("All cron jobs registered successfully", "count", len(entries))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
