package repository

import (
	"context"

	"toolshare-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	// GetByIDForUpdate locks the user row until the enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.User, error)
	UpdateTrustScore(ctx context.Context, id int32, score float64) error
	ListToolOwnerIDs(ctx context.Context) ([]int32, error)
}

type ToolRepository interface {
	Create(ctx context.Context, tool *domain.Tool) error
	GetByID(ctx context.Context, id int32) (*domain.Tool, error)
	// GetByIDForUpdate locks the tool row. Reservation inserts for a tool are
	// serialized on this lock.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Tool, error)
	Update(ctx context.Context, id int32, patch domain.ToolPatch) (*domain.Tool, error)
	Delete(ctx context.Context, id int32) error
	ListByOwner(ctx context.Context, ownerID int32) ([]domain.Tool, error)
	Search(ctx context.Context, filter domain.ToolFilter, limit, offset int) ([]domain.Tool, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id int32) (*domain.Reservation, error)
	// GetByIDForUpdate locks the reservation row. OwnerID is populated.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int32, status domain.ReservationStatus) error
	// ListBlocking returns pending and approved reservations of a tool that
	// end on or after from.
	ListBlocking(ctx context.Context, toolID int32, from domain.Date) ([]domain.Reservation, error)
	ListByParticipant(ctx context.Context, userID int32) ([]domain.Reservation, error)
	CompleteEndedBefore(ctx context.Context, day domain.Date) ([]domain.Reservation, error)
	CancelPendingStartedBefore(ctx context.Context, day domain.Date) ([]domain.Reservation, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ListByTool(ctx context.Context, toolID int32) ([]domain.Review, error)
	StatsByTool(ctx context.Context, toolID int32) (domain.RatingStats, error)
	// StatsByOwner aggregates every review reachable through the owner's
	// tools and their reservations.
	StatsByOwner(ctx context.Context, ownerID int32) (domain.RatingStats, error)
}

// Tx exposes repositories bound to one open transaction.
type Tx interface {
	Users() UserRepository
	Tools() ToolRepository
	Reservations() ReservationRepository
	Reviews() ReviewRepository
}

// TxManager runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise, including when ctx is cancelled.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store combines non-transactional repository access with transactions.
type Store interface {
	Tx
	TxManager
	Ping(ctx context.Context) error
}
