package repository

import (
	"context"

	"github.com/jack23912/webscrapbook/internal/dom"
)

// DocumentLoader defines the contract for turning a URL into a live document.
type DocumentLoader interface {
	// Load fetches and renders url. Frame documents the loader can inspect
	// are bound into the returned document.
	Load(ctx context.Context, url string) (*dom.LiveDocument, error)
}
