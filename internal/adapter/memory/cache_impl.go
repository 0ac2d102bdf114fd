package memory

import (
	"context"
	"sync"
)

// CacheImpl is an in-process implementation of repository.ResourceCache.
type CacheImpl struct {
	mu   sync.RWMutex
	refs map[string]string
}

// NewCache creates an empty cache.
func NewCache() *CacheImpl {
	return &CacheImpl{refs: make(map[string]string)}
}

func (c *CacheImpl) Lookup(_ context.Context, sessionID, url string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.refs[sessionID+"\x00"+url]
	return ref, ok, nil
}

func (c *CacheImpl) Remember(_ context.Context, sessionID, url, reference string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs[sessionID+"\x00"+url] = reference
	return nil
}
