package jobs

import (
	"context"

	"toolshare-backend/internal/logger"
)

// CompleteFinishedReservations marks approved reservations whose end date
// has passed as completed
func (jr *JobRunner) CompleteFinishedReservations() error {
	return jr.runWithRecovery(JobCompleteFinishedReservations, func(ctx context.Context) error {
		completed, err := jr.services.Reservation.CompleteFinishedReservations(ctx)
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "Completed finished reservations", "count", len(completed))
		for _, r := range completed {
			logger.DebugContext(ctx, "Marked reservation as completed",
				"reservation_id", r.ID,
				"tool_id", r.ToolID,
				"end_date", r.EndDate)
		}
		return nil
	})
}

// ExpireStalePending cancels pending requests whose start date passed
// without approval, freeing their dates
func (jr *JobRunner) ExpireStalePending() error {
	return jr.runWithRecovery(JobExpireStalePending, func(ctx context.Context) error {
		expired, err := jr.services.Reservation.ExpireStalePending(ctx)
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "Expired stale pending reservations", "count", len(expired))
		for _, r := range expired {
			logger.DebugContext(ctx, "Cancelled stale reservation",
				"reservation_id", r.ID,
				"tool_id", r.ToolID,
				"start_date", r.StartDate)
		}
		return nil
	})
}

// ReconcileTrustScores recomputes every tool owner's trust score from their
// reviews
func (jr *JobRunner) ReconcileTrustScores() error {
	return jr.runWithRecovery(JobReconcileTrustScores, func(ctx context.Context) error {
		n, err := jr.services.Reputation.ReconcileAll(ctx)
		logger.InfoContext(ctx, "Reconciled trust scores", "owners", n)
		return err
	})
}
