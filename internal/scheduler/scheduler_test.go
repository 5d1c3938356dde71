package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolshare-backend/internal/config"
	"toolshare-backend/internal/jobs"
)

func TestNewScheduler(t *testing.T) {
	t.Run("Registers every job", func(t *testing.T) {
		cfg := &config.Config{
			Booking: config.BookingConfig{Timezone: "Europe/Berlin"},
			Scheduler: config.SchedulerConfig{
				CompleteFinishedReservations: "0 5 0 * * *",
				ExpireStalePending:           "0 10 0 * * *",
				ReconcileTrustScores:         "0 0 3 * * *",
			},
		}
		s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
		require.NoError(t, err)

		entries := s.cron.Entries()
		require.Len(t, entries, 3)
		assert.True(t, s.IsRunning())

		berlin, err := time.LoadLocation("Europe/Berlin")
		require.NoError(t, err)
		now := time.Date(2023, 10, 30, 12, 0, 0, 0, berlin)
		assert.WithinDuration(t, time.Date(2023, 10, 31, 0, 5, 0, 0, berlin), entries[0].Schedule.Next(now), 0)

		s.Start()
		s.Stop()
	})

	t.Run("Bad spec", func(t *testing.T) {
		cfg := &config.Config{
			Scheduler: config.SchedulerConfig{
				CompleteFinishedReservations: "every night",
				ExpireStalePending:           "0 10 0 * * *",
				ReconcileTrustScores:         "0 0 3 * * *",
			},
		}
		_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
		require.Error(t, err)
		assert.Contains(t, err.Error(), jobs.JobCompleteFinishedReservations)
	})
}
