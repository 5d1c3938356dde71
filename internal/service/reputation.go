package service

import (
	"context"
	"errors"
	"fmt"

	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/repository"
)

type reputationService struct {
	store repository.Store
}

func NewReputationService(store repository.Store) ReputationService {
	return &reputationService{store: store}
}

// Recompute derives the owner's trust score from every review of their
// tools and stores it.
func (s *reputationService) Recompute(ctx context.Context, ownerID int32) (float64, error) {
	var score float64
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		score, err = recomputeTrustScore(ctx, tx, ownerID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}

// ReconcileAll recomputes the score of every user who owns a tool. A failure
// for one owner does not stop the others.
func (s *reputationService) ReconcileAll(ctx context.Context) (int, error) {
	logger.EnterMethod(ctx, "reputationService.ReconcileAll")

	ownerIDs, err := s.store.Users().ListToolOwnerIDs(ctx)
	if err != nil {
		logger.ExitMethodWithError(ctx, "reputationService.ReconcileAll", err)
		return 0, err
	}

	var (
		updated int
		errs    []error
	)
	for _, id := range ownerIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.Recompute(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("owner %d: %w", id, err))
			continue
		}
		updated++
	}

	err = errors.Join(errs...)
	if err != nil {
		logger.ExitMethodWithError(ctx, "reputationService.ReconcileAll", err, "updated", updated, "owners", len(ownerIDs))
		return updated, err
	}
	logger.ExitMethod(ctx, "reputationService.ReconcileAll", "updated", updated)
	return updated, nil
}

// recomputeTrustScore runs inside the caller's transaction. The owner row is
// locked first, so concurrent reviews of the same owner's tools aggregate and
// write one after another.
func recomputeTrustScore(ctx context.Context, tx repository.Tx, ownerID int32) (float64, error) {
	owner, err := tx.Users().GetByIDForUpdate(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	stats, err := tx.Reviews().StatsByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	score := stats.TrustScore()
	if err := tx.Users().UpdateTrustScore(ctx, ownerID, score); err != nil {
		return 0, err
	}

	logger.DebugContext(ctx, "Recomputed trust score", "ownerID", ownerID, "reviews", stats.Count, "previous", owner.TrustScore, "score", score)
	return score, nil
}
