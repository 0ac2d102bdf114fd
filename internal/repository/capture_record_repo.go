package repository

import (
	"context"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// CaptureRecordRepository defines the interface for storing capture outcomes.
type CaptureRecordRepository interface {
	// Save stores the record. If the session already has one, it is updated.
	Save(ctx context.Context, record *entity.CaptureRecord) error
	// FindBySession retrieves the record of a session, or ErrNotFound.
	FindBySession(ctx context.Context, sessionID string) (*entity.CaptureRecord, error)
}
