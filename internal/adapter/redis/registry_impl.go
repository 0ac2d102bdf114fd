package redis

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/pkg/utils"
)

const namesKeyPrefix = "capture:names:"

// RegistryImpl implements NameRegistry on a Redis set per session, so that
// several processes capturing into one session never hand out the same name.
type RegistryImpl struct {
	client *redis.Client
	ttl    time.Duration
}

type Option func(*RegistryImpl)

// WithTTL sets the expiration of a session's name set. Zero keeps it forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *RegistryImpl) {
		r.ttl = ttl
	}
}

// NewRegistry creates a new instance of RegistryImpl.
func NewRegistry(client *redis.Client, opts ...Option) *RegistryImpl {
	r := &RegistryImpl{client: client, ttl: 24 * time.Hour}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterDocument reserves settings.DocumentName within the session.
func (r *RegistryImpl) RegisterDocument(ctx context.Context, settings entity.CaptureSettings) (string, error) {
	return r.register(ctx, settings.SessionID, settings.DocumentName, "")
}

// RegisterFile reserves filename within the session, keeping its extension.
func (r *RegistryImpl) RegisterFile(ctx context.Context, sessionID, filename string) (string, error) {
	base, ext := utils.SplitExt(filename)
	return r.register(ctx, sessionID, base, ext)
}

// register tries base, base_1, base_2, ... until SADD reports a new member.
// Names are compared case-insensitively.
func (r *RegistryImpl) register(ctx context.Context, sessionID, base, ext string) (string, error) {
	key := namesKeyPrefix + sessionID
	for i := 0; ; i++ {
		name := utils.NumberedName(base, ext, i)
		added, err := r.client.SAdd(ctx, key, strings.ToLower(name)).Result()
		if err != nil {
			return "", err
		}
		if added == 0 {
			continue
		}
		if r.ttl > 0 {
			if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
				return "", err
			}
		}
		return name, nil
	}
}
