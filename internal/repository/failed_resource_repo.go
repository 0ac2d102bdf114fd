package repository

import (
	"context"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// FailedResourceRepository defines the interface for sub-operations that fell
// back to the original URL.
type FailedResourceRepository interface {
	// SaveOrUpdate creates or updates the record of a failed resource,
	// counting attempts.
	SaveOrUpdate(ctx context.Context, failed *entity.FailedResource) error
	// ListBySession lists the failures of a session.
	ListBySession(ctx context.Context, sessionID string) ([]*entity.FailedResource, error)
}
