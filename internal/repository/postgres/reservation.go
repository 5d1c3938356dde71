package postgres

import (
	"context"
	"database/sql"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/repository"
)

type reservationRepository struct {
	db querier
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationFields = `r.id, r.tool_id, r.renter_id, r.start_date, r.end_date, r.total_price, r.status, r.created_at, t.owner_id, t.name, u.name`

const reservationSelect = `SELECT ` + reservationFields + `
	FROM reservations r
	JOIN tools t ON t.id = r.tool_id
	JOIN users u ON u.id = r.renter_id`

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	rt := &domain.Reservation{}
	err := row.Scan(&rt.ID, &rt.ToolID, &rt.RenterID, &rt.StartDate, &rt.EndDate, &rt.TotalPrice, &rt.Status, &rt.CreatedAt, &rt.OwnerID, &rt.ToolName, &rt.RenterName)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *reservationRepository) Create(ctx context.Context, rt *domain.Reservation) error {
	logger.EnterMethod(ctx, "reservationRepository.Create", "toolID", rt.ToolID, "renterID", rt.RenterID)

	query := `INSERT INTO reservations (tool_id, renter_id, start_date, end_date, total_price, status)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, rt.ToolID, rt.RenterID, rt.StartDate, rt.EndDate, rt.TotalPrice, rt.Status).Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		logger.ExitMethodWithError(ctx, "reservationRepository.Create", err, "toolID", rt.ToolID)
		return insertError("create reservation", err, map[string]error{
			fkReservationTool:   domain.ErrToolNotFound,
			fkReservationRenter: domain.ErrUserNotFound,
		})
	}

	logger.ExitMethod(ctx, "reservationRepository.Create", "reservationID", rt.ID)
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	return r.get(ctx, reservationSelect+` WHERE r.id = $1`, id)
}

func (r *reservationRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Reservation, error) {
	return r.get(ctx, reservationSelect+` WHERE r.id = $1 FOR UPDATE OF r`, id)
}

func (r *reservationRepository) get(ctx context.Context, query string, id int32) (*domain.Reservation, error) {
	rt, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, storageError("get reservation", err)
	}
	return rt, nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id int32, status domain.ReservationStatus) error {
	logger.EnterMethod(ctx, "reservationRepository.UpdateStatus", "reservationID", id, "status", status)

	res, err := r.db.ExecContext(ctx, `UPDATE reservations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		logger.ExitMethodWithError(ctx, "reservationRepository.UpdateStatus", err, "reservationID", id)
		return storageError("update reservation status", err)
	}
	if err := rowsAffectedOrNotFound(res, "update reservation status", domain.ErrReservationNotFound); err != nil {
		return err
	}

	logger.ExitMethod(ctx, "reservationRepository.UpdateStatus", "reservationID", id)
	return nil
}

func (r *reservationRepository) ListBlocking(ctx context.Context, toolID int32, from domain.Date) ([]domain.Reservation, error) {
	query := reservationSelect + `
		WHERE r.tool_id = $1 AND r.status IN ('pending', 'approved') AND r.end_date >= $2
		ORDER BY r.start_date`
	return r.list(ctx, "list blocking reservations", query, toolID, from)
}

func (r *reservationRepository) ListByParticipant(ctx context.Context, userID int32) ([]domain.Reservation, error) {
	query := reservationSelect + `
		WHERE r.renter_id = $1 OR t.owner_id = $1
		ORDER BY r.start_date DESC, r.id DESC`
	return r.list(ctx, "list reservations by participant", query, userID)
}

func (r *reservationRepository) CompleteEndedBefore(ctx context.Context, day domain.Date) ([]domain.Reservation, error) {
	return r.bulkTransition(ctx, "complete ended reservations", `
		UPDATE reservations SET status = 'completed'
		WHERE status = 'approved' AND end_date < $1
		RETURNING *`, day)
}

func (r *reservationRepository) CancelPendingStartedBefore(ctx context.Context, day domain.Date) ([]domain.Reservation, error) {
	return r.bulkTransition(ctx, "cancel stale pending reservations", `
		UPDATE reservations SET status = 'cancelled'
		WHERE status = 'pending' AND start_date < $1
		RETURNING *`, day)
}

// bulkTransition runs an UPDATE ... RETURNING * statement and reads the
// changed rows back with their tool and renter names.
func (r *reservationRepository) bulkTransition(ctx context.Context, op, update string, args ...any) ([]domain.Reservation, error) {
	query := `WITH r AS (` + update + `)
		SELECT ` + reservationFields + `
		FROM r
		JOIN tools t ON t.id = r.tool_id
		JOIN users u ON u.id = r.renter_id
		ORDER BY r.id`

	logger.DatabaseCall(ctx, op, query)
	changed, err := r.list(ctx, op, query, args...)
	logger.DatabaseResult(ctx, op, int64(len(changed)), err)
	return changed, err
}

func (r *reservationRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		rt, err := scanReservation(rows)
		if err != nil {
			return nil, storageError(op, err)
		}
		reservations = append(reservations, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return reservations, nil
}
