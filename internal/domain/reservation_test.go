package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservationStatus_Transitions(t *testing.T) {
	all := []ReservationStatus{
		ReservationStatusPending,
		ReservationStatusApproved,
		ReservationStatusRejected,
		ReservationStatusCompleted,
		ReservationStatusCancelled,
	}
	legal := map[[2]ReservationStatus]bool{
		{ReservationStatusPending, ReservationStatusApproved}:   true,
		{ReservationStatusPending, ReservationStatusRejected}:   true,
		{ReservationStatusPending, ReservationStatusCancelled}:  true,
		{ReservationStatusApproved, ReservationStatusCompleted}: true,
		{ReservationStatusApproved, ReservationStatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := legal[[2]ReservationStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)

			err := from.ValidateTransition(to)
			if want {
				assert.NoError(t, err)
				continue
			}
			assert.ErrorIs(t, err, ErrIllegalTransition)
			var te *TransitionError
			if assert.True(t, errors.As(err, &te)) {
				assert.Equal(t, from, te.From)
				assert.Equal(t, to, te.To)
			}
		}
	}
}

func TestReservationStatus_Terminal(t *testing.T) {
	assert.False(t, ReservationStatusPending.IsTerminal())
	assert.False(t, ReservationStatusApproved.IsTerminal())
	assert.True(t, ReservationStatusRejected.IsTerminal())
	assert.True(t, ReservationStatusCompleted.IsTerminal())
	assert.True(t, ReservationStatusCancelled.IsTerminal())
}

func TestParseReservationStatus(t *testing.T) {
	st, ok := ParseReservationStatus("approved")
	assert.True(t, ok)
	assert.Equal(t, ReservationStatusApproved, st)

	_, ok = ParseReservationStatus("confirmed")
	assert.False(t, ok)

	_, ok = ParseReservationStatus("APPROVED")
	assert.False(t, ok)
}

func TestFindConflict(t *testing.T) {
	d := func(day int) Date { return NewDate(2023, time.November, day) }
	existing := []Reservation{
		{ID: 1000, StartDate: d(1), EndDate: d(3), Status: ReservationStatusPending},
		{ID: 1001, StartDate: d(10), EndDate: d(12), Status: ReservationStatusApproved},
		{ID: 1002, StartDate: d(5), EndDate: d(6), Status: ReservationStatusCancelled},
		{ID: 1003, StartDate: d(7), EndDate: d(8), Status: ReservationStatusRejected},
		{ID: 1004, StartDate: d(20), EndDate: d(21), Status: ReservationStatusCompleted},
	}

	t.Run("overlaps pending", func(t *testing.T) {
		c := FindConflict(existing, NewDateRange(d(2), d(2)), 0)
		if assert.NotNil(t, c) {
			assert.Equal(t, int32(1000), c.ID)
		}
	})

	t.Run("overlaps approved", func(t *testing.T) {
		c := FindConflict(existing, NewDateRange(d(12), d(14)), 0)
		if assert.NotNil(t, c) {
			assert.Equal(t, int32(1001), c.ID)
		}
	})

	t.Run("cancelled rejected and completed do not block", func(t *testing.T) {
		assert.Nil(t, FindConflict(existing, NewDateRange(d(5), d(8)), 0))
		assert.Nil(t, FindConflict(existing, NewDateRange(d(20), d(21)), 0))
	})

	t.Run("excluded reservation is ignored", func(t *testing.T) {
		assert.Nil(t, FindConflict(existing, NewDateRange(d(1), d(3)), 1000))
	})

	t.Run("gap between bookings", func(t *testing.T) {
		assert.Nil(t, FindConflict(existing, NewDateRange(d(4), d(9)), 0))
	})
}
