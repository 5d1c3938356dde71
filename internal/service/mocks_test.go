package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/repository/memory"
)

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendReservationRequestNotification(ctx context.Context, ownerEmail, ownerName, renterName, toolName string, r *domain.Reservation) error {
	args := m.Called(ctx, ownerEmail, ownerName, renterName, toolName, r)
	return args.Error(0)
}

func (m *MockEmailService) SendReservationStatusNotification(ctx context.Context, renterEmail, renterName, toolName string, r *domain.Reservation) error {
	args := m.Called(ctx, renterEmail, renterName, toolName, r)
	return args.Error(0)
}

// MockEventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

// quietCollaborators returns mocks that accept any notification.
func quietCollaborators() (*MockEmailService, *MockEventPublisher) {
	email := new(MockEmailService)
	email.On("SendReservationRequestNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	email.On("SendReservationStatusNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	events := new(MockEventPublisher)
	events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return email, events
}

type fixture struct {
	store  *memory.Store
	owner  *domain.User
	other  *domain.User
	renter *domain.User
	drill  *domain.Tool
	mower  *domain.Tool
}

// newFixture seeds two owners, a renter, and one tool per owner.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: memory.NewStore()}

	f.owner = &domain.User{Name: "John Doe", Email: "john@example.com", TrustScore: domain.TrustScoreDefault}
	f.other = &domain.User{Name: "Jane Smith", Email: "jane@example.com", TrustScore: domain.TrustScoreDefault}
	f.renter = &domain.User{Name: "Bob Wilson", Email: "bob@example.com", TrustScore: domain.TrustScoreDefault}
	for _, u := range []*domain.User{f.owner, f.other, f.renter} {
		require.NoError(t, f.store.Users().Create(ctx, u))
	}

	f.drill = &domain.Tool{OwnerID: f.owner.ID, Name: "Makita Drill", Description: "Cordless drill 18V", Category: "Power Tools", DailyRate: decimal.RequireFromString("15.00"), Status: domain.ToolStatusAvailable}
	f.mower = &domain.Tool{OwnerID: f.other.ID, Name: "Lawn Mower", Description: "Electric lawn mower", Category: "Gardening", DailyRate: decimal.RequireFromString("25.00"), Status: domain.ToolStatusAvailable}
	for _, tool := range []*domain.Tool{f.drill, f.mower} {
		require.NoError(t, f.store.Tools().Create(ctx, tool))
	}
	return f
}

func fixedToday() domain.Date {
	return domain.NewDate(2023, 10, 30)
}

func date(s string) domain.Date {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
