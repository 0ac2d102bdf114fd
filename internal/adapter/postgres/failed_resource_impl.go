package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// FailedResourceRepoImpl provides a concrete implementation for the FailedResourceRepository interface using PostgreSQL.
type FailedResourceRepoImpl struct {
	db *pgxpool.Pool
}

// NewFailedResourceRepo creates a new instance of FailedResourceRepoImpl.
func NewFailedResourceRepo(db *pgxpool.Pool) *FailedResourceRepoImpl {
	return &FailedResourceRepoImpl{db: db}
}

// SaveOrUpdate creates or updates a record for a failed resource.
// It increments attempts on conflict.
func (r *FailedResourceRepoImpl) SaveOrUpdate(ctx context.Context, failed *entity.FailedResource) error {
	query := `
		INSERT INTO failed_resources (session_id, url, kind, failure_reason, fallback, attempts, last_attempt_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
		ON CONFLICT (session_id, url, kind) DO UPDATE SET
			failure_reason = EXCLUDED.failure_reason,
			fallback = EXCLUDED.fallback,
			last_attempt_at = EXCLUDED.last_attempt_at,
			attempts = failed_resources.attempts + 1;
	`
	_, err := r.db.Exec(ctx, query,
		failed.SessionID,
		failed.URL,
		failed.Kind,
		failed.FailureReason,
		failed.Fallback,
		failed.LastAttemptAt,
	)
	return err
}

// ListBySession retrieves the failures of a session, oldest first.
func (r *FailedResourceRepoImpl) ListBySession(ctx context.Context, sessionID string) ([]*entity.FailedResource, error) {
	query := `
		SELECT id, session_id, url, kind, failure_reason, fallback, attempts, last_attempt_at
		FROM failed_resources
		WHERE session_id = $1
		ORDER BY id ASC;
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	failed := []*entity.FailedResource{}
	for rows.Next() {
		var fr entity.FailedResource
		if err := rows.Scan(
			&fr.ID,
			&fr.SessionID,
			&fr.URL,
			&fr.Kind,
			&fr.FailureReason,
			&fr.Fallback,
			&fr.Attempts,
			&fr.LastAttemptAt,
		); err != nil {
			return nil, err
		}
		failed = append(failed, &fr)
	}

	return failed, rows.Err()
}
