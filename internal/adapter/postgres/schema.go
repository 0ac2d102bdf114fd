package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables used by this package. EnsureSchema applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS capture_records (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	url TEXT NOT NULL,
	document_name TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL DEFAULT '',
	mime TEXT NOT NULL DEFAULT '',
	bytes INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	fail_reason TEXT NOT NULL DEFAULT '',
	captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS failed_resources (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	url TEXT NOT NULL,
	kind TEXT NOT NULL,
	failure_reason TEXT NOT NULL,
	fallback TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 1,
	last_attempt_at TIMESTAMPTZ NOT NULL,
	UNIQUE (session_id, url, kind)
);
CREATE INDEX IF NOT EXISTS idx_failed_resources_session ON failed_resources(session_id);
`

// EnsureSchema creates missing tables.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
