package postgres

import (
	"context"
	"database/sql"

	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/repository"

	_ "github.com/lib/pq"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so every repository can
// run either on the pool or inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the PostgreSQL implementation of repository.Store. Its
// repositories run on the connection pool; WithinTx hands out repositories
// bound to a single transaction.
type Store struct {
	db *sql.DB
	repos
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repos: newRepos(db)}
}

// WithinTx runs fn in a READ COMMITTED transaction. Serialization of the
// critical sections comes from the row locks taken by the *ForUpdate reads.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin transaction", err)
	}
	defer sqlTx.Rollback()

	if err := fn(ctx, newRepos(sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return storageError("commit transaction", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type repos struct {
	users        repository.UserRepository
	tools        repository.ToolRepository
	reservations repository.ReservationRepository
	reviews      repository.ReviewRepository
}

func newRepos(q querier) repos {
	return repos{
		users:        &userRepository{db: q},
		tools:        &toolRepository{db: q},
		reservations: &reservationRepository{db: q},
		reviews:      &reviewRepository{db: q},
	}
}

func (r repos) Users() repository.UserRepository               { return r.users }
func (r repos) Tools() repository.ToolRepository               { return r.tools }
func (r repos) Reservations() repository.ReservationRepository { return r.reservations }
func (r repos) Reviews() repository.ReviewRepository           { return r.reviews }

var _ repository.Store = (*Store)(nil)

func rowsAffectedOrNotFound(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageError(op, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func limitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
