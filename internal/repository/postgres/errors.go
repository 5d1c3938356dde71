package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"toolshare-backend/internal/domain"
)

const (
	pqForeignKeyViolation pq.ErrorCode = "23503"
	pqCheckViolation      pq.ErrorCode = "23514"
	pqUniqueViolation     pq.ErrorCode = "23505"
	pqNumericOutOfRange   pq.ErrorCode = "22003"
)

// storageError wraps a driver error as ErrStorageFailure, keeping the cause
// reachable through errors.As.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageFailure, err)
}

// Foreign key constraint names as Postgres generates them for the inline
// REFERENCES clauses in the schema.
const (
	fkToolOwner         = "tools_owner_id_fkey"
	fkReservationTool   = "reservations_tool_id_fkey"
	fkReservationRenter = "reservations_renter_id_fkey"
	fkReviewReservation = "reviews_reservation_id_fkey"
)

// insertError classifies a failed INSERT. A foreign key violation means a
// referenced row disappeared; notFound maps the violated constraint to the
// error for that row.
func insertError(op string, err error, notFound map[string]error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			if target, ok := notFound[pqErr.Constraint]; ok {
				return fmt.Errorf("%s: %w", op, target)
			}
		case pqNumericOutOfRange:
			return fmt.Errorf("%s: %w: amount exceeds the storable range", op, domain.ErrInvalidInput)
		}
	}
	return storageError(op, err)
}

// IsConstraintViolation reports whether err was caused by a check or unique
// constraint rejecting the row.
func IsConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqCheckViolation || pqErr.Code == pqUniqueViolation
}
