package repository

import (
	"context"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// NameRegistry hands out unique artifact names within a capture session.
type NameRegistry interface {
	// RegisterDocument reserves a document base name for the invocation
	// described by settings. The first registration of a name returns it
	// unchanged, later ones get a numeric suffix.
	RegisterDocument(ctx context.Context, settings entity.CaptureSettings) (string, error)
	// RegisterFile reserves a resource file name, keeping its extension.
	RegisterFile(ctx context.Context, sessionID, filename string) (string, error)
}
