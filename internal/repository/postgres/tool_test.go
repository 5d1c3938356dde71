package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolshare-backend/internal/domain"
)

func TestToolRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewToolRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM tools t JOIN users u ON u.id = t.owner_id WHERE t.id = \$1`).
			WithArgs(int32(3)).
			WillReturnRows(sqlmock.NewRows(toolRowColumns).
				AddRow(3, 3, "Lawn Mower", "Electric lawn mower", "25.00", "Gardening", "available", "https://img/3.png", time.Now(), "Jane Smith"))

		tool, err := repo.GetByID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, int32(3), tool.OwnerID)
		assert.Equal(t, domain.ToolStatusAvailable, tool.Status)
		assert.Equal(t, "https://img/3.png", tool.ImageURL)
		assert.Equal(t, "Jane Smith", tool.OwnerName)
		assert.True(t, decimal.RequireFromString("25").Equal(tool.DailyRate))
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM tools`).
			WithArgs(int32(99)).
			WillReturnRows(sqlmock.NewRows(toolRowColumns))

		tool, err := repo.GetByID(ctx, 99)
		assert.Nil(t, tool)
		assert.ErrorIs(t, err, domain.ErrToolNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Driver failure", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM tools`).
			WithArgs(int32(1)).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.GetByID(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrStorageFailure)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToolRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewToolRepository(db)
	ctx := context.Background()

	tool := &domain.Tool{
		OwnerID:     2,
		Name:        "Hammer",
		Description: "Heavy duty hammer",
		DailyRate:   decimal.RequireFromString("5.00"),
		Category:    "Hand Tools",
		Status:      domain.ToolStatusAvailable,
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO tools").
			WithArgs(tool.OwnerID, tool.Name, tool.Description, tool.DailyRate, tool.Category, tool.Status, tool.ImageURL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(2, time.Now()))

		require.NoError(t, repo.Create(ctx, tool))
		assert.Equal(t, int32(2), tool.ID)
	})

	t.Run("Unknown owner", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO tools").
			WillReturnError(&pq.Error{Code: "23503", Constraint: "tools_owner_id_fkey", Message: "violates foreign key constraint"})

		err := repo.Create(ctx, &domain.Tool{OwnerID: 404, Name: "Saw", DailyRate: decimal.RequireFromString("1"), Status: domain.ToolStatusAvailable})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToolRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewToolRepository(db)
	ctx := context.Background()

	t.Run("Only patched columns are written", func(t *testing.T) {
		name := "Makita Drill XL"
		rate := decimal.RequireFromString("17.50")

		mock.ExpectExec(`UPDATE tools SET name = \$1, daily_rate = \$2 WHERE id = \$3`).
			WithArgs(name, rate, int32(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM tools`).
			WithArgs(int32(1)).
			WillReturnRows(sqlmock.NewRows(toolRowColumns).
				AddRow(1, 2, name, "Cordless drill 18V", "17.50", "Power Tools", "available", nil, time.Now(), "John Doe"))

		tool, err := repo.Update(ctx, 1, domain.ToolPatch{Name: &name, DailyRate: &rate})
		require.NoError(t, err)
		assert.Equal(t, name, tool.Name)
		assert.Equal(t, "17.50", tool.DailyRate.StringFixed(2))
	})

	t.Run("Missing tool", func(t *testing.T) {
		status := domain.ToolStatusMaintenance
		mock.ExpectExec(`UPDATE tools SET status = \$1 WHERE id = \$2`).
			WithArgs(status, int32(77)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.Update(ctx, 77, domain.ToolPatch{Status: &status})
		assert.ErrorIs(t, err, domain.ErrToolNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToolRepository_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewToolRepository(db)

	mock.ExpectQuery(`WHERE \(t.name ILIKE '%' \|\| \$1 \|\| '%' OR t.category ILIKE '%' \|\| \$1 \|\| '%'\) ORDER BY t.id LIMIT \$2 OFFSET \$3`).
		WithArgs("drill", 2, 0).
		WillReturnRows(sqlmock.NewRows(toolRowColumns).
			AddRow(1, 2, "Makita Drill", "", "15.00", "Power Tools", "available", nil, time.Now(), "John Doe"))

	tools, err := repo.Search(context.Background(), domain.ToolFilter{Query: "drill"}, 2, 0)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "Makita Drill", tools[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToolRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewToolRepository(db)

	mock.ExpectExec(`DELETE FROM tools WHERE id = \$1`).WithArgs(int32(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM tools WHERE id = \$1`).WithArgs(int32(6)).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 5))
	assert.ErrorIs(t, repo.Delete(context.Background(), 6), domain.ErrToolNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
