package repository

import (
	"context"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// FrameDelegate captures frames whose document cannot be inspected in process.
type FrameDelegate interface {
	GetFrameContent(ctx context.Context, url string, settings entity.CaptureSettings, options entity.CaptureOptions) (*entity.CaptureResult, error)
}
