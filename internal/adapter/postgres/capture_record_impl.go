package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
)

// CaptureRecordRepoImpl provides a concrete implementation for the CaptureRecordRepository interface using PostgreSQL.
type CaptureRecordRepoImpl struct {
	db *pgxpool.Pool
}

// NewCaptureRecordRepo creates a new instance of CaptureRecordRepoImpl.
func NewCaptureRecordRepo(db *pgxpool.Pool) *CaptureRecordRepoImpl {
	return &CaptureRecordRepoImpl{db: db}
}

// Save stores or updates the record of a session.
func (r *CaptureRecordRepoImpl) Save(ctx context.Context, record *entity.CaptureRecord) error {
	query := `
		INSERT INTO capture_records (session_id, url, document_name, reference, mime, bytes, status, fail_reason, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE SET
			url = EXCLUDED.url,
			document_name = EXCLUDED.document_name,
			reference = EXCLUDED.reference,
			mime = EXCLUDED.mime,
			bytes = EXCLUDED.bytes,
			status = EXCLUDED.status,
			fail_reason = EXCLUDED.fail_reason,
			captured_at = EXCLUDED.captured_at
		RETURNING id;
	`
	return r.db.QueryRow(ctx, query,
		record.SessionID,
		record.URL,
		record.DocumentName,
		record.Reference,
		record.Mime,
		record.Bytes,
		record.Status,
		record.FailReason,
		record.CapturedAt,
	).Scan(&record.ID)
}

// FindBySession retrieves the record of a session.
func (r *CaptureRecordRepoImpl) FindBySession(ctx context.Context, sessionID string) (*entity.CaptureRecord, error) {
	query := `
		SELECT id, session_id, url, document_name, reference, mime, bytes, status, fail_reason, captured_at
		FROM capture_records
		WHERE session_id = $1;
	`
	var record entity.CaptureRecord
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&record.ID,
		&record.SessionID,
		&record.URL,
		&record.DocumentName,
		&record.Reference,
		&record.Mime,
		&record.Bytes,
		&record.Status,
		&record.FailReason,
		&record.CapturedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
