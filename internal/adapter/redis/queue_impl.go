package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
)

const captureQueueKey = "capture:queue"

// QueueRepoImpl provides a concrete implementation for the CaptureQueue interface using Redis Lists.
type QueueRepoImpl struct {
	client *redis.Client
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Push adds a job to the left side of the Redis list (acting as a queue).
func (r *QueueRepoImpl) Push(ctx context.Context, req *entity.CaptureRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode capture request: %w", err)
	}
	return r.client.LPush(ctx, captureQueueKey, payload).Err()
}

// Pop removes and returns a job from the right side of the Redis list.
func (r *QueueRepoImpl) Pop(ctx context.Context) (*entity.CaptureRequest, error) {
	payload, err := r.client.RPop(ctx, captureQueueKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}
	var req entity.CaptureRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode capture request: %w", err)
	}
	return &req, nil
}

// Size returns the current number of jobs in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, captureQueueKey).Result()
}
