package postgres

import (
	"context"
	"database/sql"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/repository"
)

type userRepository struct {
	db querier
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, trust_score, created_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.UserRoleUser
	}
	// trust_score takes the column default; only reputation recompute moves it.
	query := `INSERT INTO users (name, email, password_hash, role)
	          VALUES ($1, $2, $3, $4) RETURNING id, trust_score, created_at`
	err := r.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Role).Scan(&u.ID, &u.TrustScore, &u.CreatedAt)
	if err != nil {
		return storageError("create user", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *userRepository) get(ctx context.Context, query string, id int32) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.TrustScore, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, storageError("get user", err)
	}
	return u, nil
}

func (r *userRepository) UpdateTrustScore(ctx context.Context, id int32, score float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET trust_score = $1 WHERE id = $2`, score, id)
	if err != nil {
		return storageError("update trust score", err)
	}
	return rowsAffectedOrNotFound(res, "update trust score", domain.ErrUserNotFound)
}

func (r *userRepository) ListToolOwnerIDs(ctx context.Context) ([]int32, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM tools ORDER BY owner_id`)
	if err != nil {
		return nil, storageError("list tool owners", err)
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, storageError("list tool owners", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list tool owners", err)
	}
	return ids, nil
}
