package http

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"toolshare-backend/internal/domain"
)

type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) CreateReservation(ctx context.Context, renterID, toolID int32, start, end domain.Date) (*domain.Reservation, error) {
	args := m.Called(ctx, renterID, toolID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationService) UpdateReservationStatus(ctx context.Context, actorID, reservationID int32, status domain.ReservationStatus) (*domain.Reservation, error) {
	args := m.Called(ctx, actorID, reservationID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationService) CheckAvailability(ctx context.Context, toolID int32, start, end domain.Date, excludeID int32) (bool, error) {
	args := m.Called(ctx, toolID, start, end, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationService) QuotePrice(ctx context.Context, toolID int32, start, end domain.Date) (decimal.Decimal, error) {
	args := m.Called(ctx, toolID, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockReservationService) GetReservation(ctx context.Context, actorID, reservationID int32) (*domain.Reservation, error) {
	args := m.Called(ctx, actorID, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationService) ListMyReservations(ctx context.Context, actorID int32) ([]domain.Reservation, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationService) CompleteFinishedReservations(ctx context.Context) ([]domain.Reservation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationService) ExpireStalePending(ctx context.Context) ([]domain.Reservation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) SubmitReview(ctx context.Context, actorID, reservationID int32, rating int, comment string) (*domain.Review, error) {
	args := m.Called(ctx, actorID, reservationID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewService) ListToolReviews(ctx context.Context, toolID int32) ([]domain.Review, error) {
	args := m.Called(ctx, toolID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

type MockToolService struct {
	mock.Mock
}

func (m *MockToolService) AddTool(ctx context.Context, ownerID int32, tool *domain.Tool) error {
	args := m.Called(ctx, ownerID, tool)
	return args.Error(0)
}

func (m *MockToolService) GetTool(ctx context.Context, id int32) (*domain.ToolDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ToolDetail), args.Error(1)
}

func (m *MockToolService) UpdateTool(ctx context.Context, actorID, id int32, patch domain.ToolPatch) (*domain.Tool, error) {
	args := m.Called(ctx, actorID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *MockToolService) DeleteTool(ctx context.Context, actorID int32, isAdmin bool, id int32) error {
	args := m.Called(ctx, actorID, isAdmin, id)
	return args.Error(0)
}

func (m *MockToolService) ListMyTools(ctx context.Context, ownerID int32) ([]domain.Tool, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Tool), args.Error(1)
}

func (m *MockToolService) SearchTools(ctx context.Context, filter domain.ToolFilter) iter.Seq2[domain.Tool, error] {
	args := m.Called(ctx, filter)
	return args.Get(0).(iter.Seq2[domain.Tool, error])
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetProfile(ctx context.Context, userID int32) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

// toolSeq yields tools, then err if non-nil.
func toolSeq(tools []domain.Tool, err error) iter.Seq2[domain.Tool, error] {
	return func(yield func(domain.Tool, error) bool) {
		for _, t := range tools {
			if !yield(t, nil) {
				return
			}
		}
		if err != nil {
			yield(domain.Tool{}, err)
		}
	}
}
