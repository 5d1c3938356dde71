// Package memory is an in-process implementation of the repository
// interfaces, used for local development and tests. Transactions run one at
// a time against a private copy of the data that replaces the shared copy on
// commit.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/repository"
)

// firstReservationID matches the start of the reservation sequence in the
// PostgreSQL schema.
const firstReservationID = 1000

type state struct {
	users        map[int32]domain.User
	tools        map[int32]domain.Tool
	reservations map[int32]domain.Reservation
	reviews      map[int32]domain.Review

	lastUserID        int32
	lastToolID        int32
	lastReservationID int32
	lastReviewID      int32
}

func newState() *state {
	return &state{
		users:             map[int32]domain.User{},
		tools:             map[int32]domain.Tool{},
		reservations:      map[int32]domain.Reservation{},
		reviews:           map[int32]domain.Review{},
		lastReservationID: firstReservationID - 1,
	}
}

func (s *state) clone() *state {
	c := *s
	c.users = maps.Clone(s.users)
	c.tools = maps.Clone(s.tools)
	c.reservations = maps.Clone(s.reservations)
	c.reviews = maps.Clone(s.reviews)
	return &c
}

// access runs fn against a state. write tells the non-transactional access
// path which lock to take.
type access func(write bool, fn func(*state) error) error

type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
	repos
}

func NewStore() *Store {
	s := &Store{st: newState(), now: time.Now}
	s.repos = newRepos(s.direct, s.clock)
	return s
}

func (s *Store) clock() time.Time { return s.now() }

func (s *Store) direct(write bool, fn func(*state) error) error {
	if write {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.st)
}

// WithinTx holds the store lock for the whole of fn, so transactions are
// fully serialized. Changes become visible only if fn succeeds and ctx is
// still live.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w: %w", domain.ErrStorageFailure, err)
	}

	work := s.st.clone()
	txAccess := func(_ bool, f func(*state) error) error { return f(work) }
	if err := fn(ctx, newRepos(txAccess, s.clock)); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w: %w", domain.ErrStorageFailure, err)
	}
	s.st = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type repos struct {
	users        *userRepository
	tools        *toolRepository
	reservations *reservationRepository
	reviews      *reviewRepository
}

func newRepos(with access, now func() time.Time) repos {
	return repos{
		users:        &userRepository{with: with, now: now},
		tools:        &toolRepository{with: with, now: now},
		reservations: &reservationRepository{with: with, now: now},
		reviews:      &reviewRepository{with: with, now: now},
	}
}

func (r repos) Users() repository.UserRepository               { return r.users }
func (r repos) Tools() repository.ToolRepository               { return r.tools }
func (r repos) Reservations() repository.ReservationRepository { return r.reservations }
func (r repos) Reviews() repository.ReviewRepository           { return r.reviews }

var _ repository.Store = (*Store)(nil)

func (s *state) toolView(t domain.Tool) domain.Tool {
	t.OwnerName = s.users[t.OwnerID].Name
	return t
}

func (s *state) reservationView(r domain.Reservation) domain.Reservation {
	tool := s.tools[r.ToolID]
	r.OwnerID = tool.OwnerID
	r.ToolName = tool.Name
	r.RenterName = s.users[r.RenterID].Name
	return r
}

func paginate[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	return items[offset:min(offset+limit, len(items))]
}
