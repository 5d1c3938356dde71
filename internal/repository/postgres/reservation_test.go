package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolshare-backend/internal/domain"
)

var reservationRowColumns = []string{"id", "tool_id", "renter_id", "start_date", "end_date", "total_price", "status", "created_at", "owner_id", "name", "name"}

func day(s string) domain.Date {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReservationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReservationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rt := &domain.Reservation{
			ToolID:     1,
			RenterID:   3,
			StartDate:  day("2023-11-01"),
			EndDate:    day("2023-11-03"),
			TotalPrice: decimal.RequireFromString("45.00"),
			Status:     domain.ReservationStatusPending,
		}

		mock.ExpectQuery("INSERT INTO reservations").
			WithArgs(rt.ToolID, rt.RenterID, rt.StartDate, rt.EndDate, rt.TotalPrice, rt.Status).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1000, time.Now()))

		require.NoError(t, repo.Create(ctx, rt))
		assert.Equal(t, int32(1000), rt.ID)
	})

	t.Run("Unknown tool", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO reservations").
			WillReturnError(&pq.Error{Code: "23503", Constraint: "reservations_tool_id_fkey"})

		err := repo.Create(ctx, &domain.Reservation{ToolID: 404, RenterID: 3, Status: domain.ReservationStatusPending})
		assert.ErrorIs(t, err, domain.ErrToolNotFound)
	})

	t.Run("Unknown renter", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO reservations").
			WillReturnError(&pq.Error{Code: "23503", Constraint: "reservations_renter_id_fkey"})

		err := repo.Create(ctx, &domain.Reservation{ToolID: 1, RenterID: 404, Status: domain.ReservationStatusPending})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.NotErrorIs(t, err, domain.ErrToolNotFound)
	})

	t.Run("Total too large for the column", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO reservations").
			WillReturnError(&pq.Error{Code: "22003", Message: "numeric field overflow"})

		err := repo.Create(ctx, &domain.Reservation{ToolID: 1, RenterID: 3, Status: domain.ReservationStatusPending})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Unrecognised foreign key is a storage failure", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO reservations").
			WillReturnError(&pq.Error{Code: "23503", Constraint: "reservations_other_fkey"})

		err := repo.Create(ctx, &domain.Reservation{ToolID: 1, RenterID: 3, Status: domain.ReservationStatusPending})
		assert.ErrorIs(t, err, domain.ErrStorageFailure)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_GetByIDForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReservationRepository(db)
	ctx := context.Background()

	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE r.id = \$1 FOR UPDATE OF r`).
		WithArgs(int32(1000)).
		WillReturnRows(sqlmock.NewRows(reservationRowColumns).
			AddRow(1000, 1, 3, start, start.AddDate(0, 0, 2), "45.00", "pending", time.Now(), 2, "Makita Drill", "Bob Wilson"))
	mock.ExpectQuery(`WHERE r.id = \$1 FOR UPDATE OF r`).
		WithArgs(int32(1)).
		WillReturnRows(sqlmock.NewRows(reservationRowColumns))

	rt, err := repo.GetByIDForUpdate(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusPending, rt.Status)
	assert.Equal(t, "2023-11-03", rt.EndDate.String())
	assert.Equal(t, int32(2), rt.OwnerID)
	assert.Equal(t, "Bob Wilson", rt.RenterName)

	_, err = repo.GetByIDForUpdate(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReservationRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE reservations SET status = \$1 WHERE id = \$2`).
		WithArgs(domain.ReservationStatusApproved, int32(1000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE reservations SET status = \$1 WHERE id = \$2`).
		WithArgs(domain.ReservationStatusApproved, int32(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.UpdateStatus(ctx, 1000, domain.ReservationStatusApproved))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 5, domain.ReservationStatusApproved), domain.ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_ListBlocking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReservationRepository(db)

	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`r.tool_id = \$1 AND r.status IN \('pending', 'approved'\) AND r.end_date >= \$2`).
		WithArgs(int32(1), day("2023-10-30")).
		WillReturnRows(sqlmock.NewRows(reservationRowColumns).
			AddRow(1000, 1, 3, start, start.AddDate(0, 0, 2), "45.00", "approved", time.Now(), 2, "Makita Drill", "Bob Wilson").
			AddRow(1001, 1, 4, start.AddDate(0, 0, 5), start.AddDate(0, 0, 6), "30.00", "pending", time.Now(), 2, "Makita Drill", "Carol"))

	list, err := repo.ListBlocking(context.Background(), 1, day("2023-10-30"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int32(1000), list[0].ID)
	assert.Equal(t, domain.ReservationStatusPending, list[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_BulkTransitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReservationRepository(db)
	ctx := context.Background()
	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Complete ended approved reservations", func(t *testing.T) {
		mock.ExpectQuery(`WITH r AS \(\s+UPDATE reservations SET status = 'completed'\s+WHERE status = 'approved' AND end_date < \$1`).
			WithArgs(day("2023-11-10")).
			WillReturnRows(sqlmock.NewRows(reservationRowColumns).
				AddRow(1000, 1, 3, start, start.AddDate(0, 0, 2), "45.00", "completed", time.Now(), 2, "Makita Drill", "Bob Wilson"))

		changed, err := repo.CompleteEndedBefore(ctx, day("2023-11-10"))
		require.NoError(t, err)
		require.Len(t, changed, 1)
		assert.Equal(t, domain.ReservationStatusCompleted, changed[0].Status)
	})

	t.Run("Cancel stale pending reservations", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE reservations SET status = 'cancelled'\s+WHERE status = 'pending' AND start_date < \$1`).
			WithArgs(day("2023-11-10")).
			WillReturnRows(sqlmock.NewRows(reservationRowColumns))

		changed, err := repo.CancelPendingStartedBefore(ctx, day("2023-11-10"))
		require.NoError(t, err)
		assert.Empty(t, changed)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
