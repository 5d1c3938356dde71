package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"toolshare-backend/internal/logger"
)

// schemaStatements create the tables when they do not exist yet. Reservation
// ids come from their own sequence starting at 1000.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(20)  NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
		trust_score   DOUBLE PRECISION NOT NULL DEFAULT 5.0 CHECK (trust_score >= 0 AND trust_score <= 10),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tools (
		id          SERIAL PRIMARY KEY,
		owner_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name        VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		daily_rate  NUMERIC(10, 2) NOT NULL CHECK (daily_rate > 0),
		category    VARCHAR(50) NOT NULL DEFAULT '',
		status      VARCHAR(20) NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'maintenance', 'rented')),
		image_url   TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tools_search ON tools (name, category)`,
	`CREATE SEQUENCE IF NOT EXISTS reservation_seq START 1000`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id          INTEGER PRIMARY KEY DEFAULT nextval('reservation_seq'),
		tool_id     INTEGER NOT NULL REFERENCES tools(id) ON DELETE CASCADE,
		renter_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		start_date  DATE NOT NULL,
		end_date    DATE NOT NULL,
		total_price NUMERIC(10, 2) NOT NULL,
		status      VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected', 'completed', 'cancelled')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (end_date >= start_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_tool_status ON reservations (tool_id, status)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id             SERIAL PRIMARY KEY,
		reservation_id INTEGER NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
		rating         INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment        TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate applies the schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return storageError(fmt.Sprintf("apply schema statement %d", i+1), err)
		}
	}
	logger.InfoContext(ctx, "Database schema is up to date", "statements", len(schemaStatements))
	return nil
}
