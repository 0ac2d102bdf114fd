package repository

import (
	"context"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// CaptureQueue defines the interface for a FIFO queue of capture jobs.
type CaptureQueue interface {
	// Push adds a job to the end of the queue.
	Push(ctx context.Context, req *entity.CaptureRequest) error
	// Pop removes and returns the job at the front of the queue. It returns
	// ErrQueueEmpty when nothing is waiting.
	Pop(ctx context.Context) (*entity.CaptureRequest, error)
	// Size returns the current number of jobs in the queue.
	Size(ctx context.Context) (int64, error)
}
