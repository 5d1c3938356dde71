package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/repository"
)

type toolRepository struct {
	db querier
}

func NewToolRepository(db *sql.DB) repository.ToolRepository {
	return &toolRepository{db: db}
}

const toolSelect = `SELECT t.id, t.owner_id, t.name, t.description, t.daily_rate, t.category, t.status, t.image_url, t.created_at, u.name
	FROM tools t JOIN users u ON u.id = t.owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTool(row rowScanner) (*domain.Tool, error) {
	t := &domain.Tool{}
	var imageURL sql.NullString
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &t.DailyRate, &t.Category, &t.Status, &imageURL, &t.CreatedAt, &t.OwnerName); err != nil {
		return nil, err
	}
	t.ImageURL = imageURL.String
	return t, nil
}

func (r *toolRepository) Create(ctx context.Context, t *domain.Tool) error {
	query := `INSERT INTO tools (owner_id, name, description, daily_rate, category, status, image_url)
	          VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, t.OwnerID, t.Name, t.Description, t.DailyRate, t.Category, t.Status, t.ImageURL).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return insertError("create tool", err, map[string]error{fkToolOwner: domain.ErrUserNotFound})
	}
	return nil
}

func (r *toolRepository) GetByID(ctx context.Context, id int32) (*domain.Tool, error) {
	return r.get(ctx, toolSelect+` WHERE t.id = $1`, id)
}

func (r *toolRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Tool, error) {
	return r.get(ctx, toolSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id)
}

func (r *toolRepository) get(ctx context.Context, query string, id int32) (*domain.Tool, error) {
	t, err := scanTool(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrToolNotFound
	}
	if err != nil {
		return nil, storageError("get tool", err)
	}
	return t, nil
}

// Update sets only the columns present in patch.
func (r *toolRepository) Update(ctx context.Context, id int32, patch domain.ToolPatch) (*domain.Tool, error) {
	sets, args := patchAssignments(patch)
	if len(sets) > 0 {
		args = append(args, id)
		query := fmt.Sprintf(`UPDATE tools SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, storageError("update tool", err)
		}
		if err := rowsAffectedOrNotFound(res, "update tool", domain.ErrToolNotFound); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// patchAssignments lists "column = $n" fragments for the set fields of p, in
// a fixed column order, with the matching arguments.
func patchAssignments(p domain.ToolPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.DailyRate != nil {
		add("daily_rate", *p.DailyRate)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.ImageURL != nil {
		add("image_url", *p.ImageURL)
	}
	return sets, args
}

func (r *toolRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tools WHERE id = $1`, id)
	if err != nil {
		return storageError("delete tool", err)
	}
	return rowsAffectedOrNotFound(res, "delete tool", domain.ErrToolNotFound)
}

func (r *toolRepository) ListByOwner(ctx context.Context, ownerID int32) ([]domain.Tool, error) {
	return r.list(ctx, "list tools by owner", toolSelect+` WHERE t.owner_id = $1 ORDER BY t.created_at DESC, t.id DESC`, ownerID)
}

func (r *toolRepository) Search(ctx context.Context, filter domain.ToolFilter, limit, offset int) ([]domain.Tool, error) {
	limit, offset = limitOffset(limit, offset)

	var where []string
	var args []any
	if filter.Query != "" {
		args = append(args, filter.Query)
		where = append(where, fmt.Sprintf(`(t.name ILIKE '%%' || $%d || '%%' OR t.category ILIKE '%%' || $%d || '%%')`, len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf(`LOWER(t.category) = LOWER($%d)`, len(args)))
	}
	if filter.OwnerID != 0 {
		args = append(args, filter.OwnerID)
		where = append(where, fmt.Sprintf(`t.owner_id = $%d`, len(args)))
	}

	query := toolSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY t.id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.list(ctx, "search tools", query, args...)
}

func (r *toolRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Tool, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	var tools []domain.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, storageError(op, err)
		}
		tools = append(tools, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return tools, nil
}
