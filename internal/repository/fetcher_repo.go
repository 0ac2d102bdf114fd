package repository

import (
	"context"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// ResourceFetcher downloads external resources into the capture session.
type ResourceFetcher interface {
	// DownloadFile stores the resource at url and returns the reference the
	// captured document should use for it.
	DownloadFile(ctx context.Context, url string, settings entity.CaptureSettings, options entity.CaptureOptions) (string, error)
}
