package repository

import (
	"context"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// DocumentSink persists finished documents.
type DocumentSink interface {
	// SaveDocument stores artifact and returns how other documents of the
	// session refer to it.
	SaveDocument(ctx context.Context, settings entity.CaptureSettings, artifact entity.Artifact) (string, error)
}

// BlobStore persists raw resource bytes.
type BlobStore interface {
	WriteFile(ctx context.Context, sessionID, name string, data []byte) error
}
