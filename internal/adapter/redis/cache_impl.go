package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jack23912/webscrapbook/pkg/utils"
)

const resourceKeyPrefix = "capture:resource:"

// CacheImpl provides a concrete implementation for the ResourceCache interface using Redis.
type CacheImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a new instance of CacheImpl. Entries expire after ttl.
func NewCache(client *redis.Client, ttl time.Duration) *CacheImpl {
	return &CacheImpl{client: client, ttl: ttl}
}

// generateKey creates a consistent Redis key for a resource by hashing its URL.
func (c *CacheImpl) generateKey(sessionID, url string) string {
	return fmt.Sprintf("%s%s:%s", resourceKeyPrefix, sessionID, utils.HashURL(url))
}

// Lookup returns the reference a session already stored for url.
func (c *CacheImpl) Lookup(ctx context.Context, sessionID, url string) (string, bool, error) {
	ref, err := c.client.Get(ctx, c.generateKey(sessionID, url)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return ref, true, nil
}

// Remember stores the reference of url with the cache expiry.
func (c *CacheImpl) Remember(ctx context.Context, sessionID, url, reference string) error {
	return c.client.SetEx(ctx, c.generateKey(sessionID, url), reference, c.ttl).Err()
}
