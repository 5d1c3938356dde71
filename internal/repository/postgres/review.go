package postgres

import (
	"context"
	"database/sql"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/repository"
)

type reviewRepository struct {
	db querier
}

func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `INSERT INTO reviews (reservation_id, rating, comment) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, rv.ReservationID, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		return insertError("create review", err, map[string]error{fkReviewReservation: domain.ErrReservationNotFound})
	}
	return nil
}

func (r *reviewRepository) ListByTool(ctx context.Context, toolID int32) ([]domain.Review, error) {
	query := `SELECT rv.id, rv.reservation_id, rv.rating, COALESCE(rv.comment, ''), rv.created_at, u.name
	          FROM reviews rv
	          JOIN reservations r ON r.id = rv.reservation_id
	          JOIN users u ON u.id = r.renter_id
	          WHERE r.tool_id = $1
	          ORDER BY rv.created_at DESC, rv.id DESC`
	rows, err := r.db.QueryContext(ctx, query, toolID)
	if err != nil {
		return nil, storageError("list reviews by tool", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ReservationID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.ReviewerName); err != nil {
			return nil, storageError("list reviews by tool", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list reviews by tool", err)
	}
	return reviews, nil
}

func (r *reviewRepository) StatsByTool(ctx context.Context, toolID int32) (domain.RatingStats, error) {
	query := `SELECT COUNT(rv.id), COALESCE(SUM(rv.rating), 0)
	          FROM reviews rv
	          JOIN reservations r ON r.id = rv.reservation_id
	          WHERE r.tool_id = $1`
	return r.stats(ctx, "tool rating stats", query, toolID)
}

func (r *reviewRepository) StatsByOwner(ctx context.Context, ownerID int32) (domain.RatingStats, error) {
	query := `SELECT COUNT(rv.id), COALESCE(SUM(rv.rating), 0)
	          FROM reviews rv
	          JOIN reservations r ON r.id = rv.reservation_id
	          JOIN tools t ON t.id = r.tool_id
	          WHERE t.owner_id = $1`
	return r.stats(ctx, "owner rating stats", query, ownerID)
}

func (r *reviewRepository) stats(ctx context.Context, op, query string, id int32) (domain.RatingStats, error) {
	var s domain.RatingStats
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&s.Count, &s.Sum); err != nil {
		return domain.RatingStats{}, storageError(op, err)
	}
	return s, nil
}
