package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack23912/webscrapbook/internal/adapter/redis"
	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestQueueRepo_FIFO(t *testing.T) {
	_, client := setup(t)
	queue := redis.NewQueueRepo(client)
	ctx := context.Background()

	// 1. Empty queue
	_, err := queue.Pop(ctx)
	assert.ErrorIs(t, err, repository.ErrQueueEmpty)

	// 2. Push two jobs
	first := &entity.CaptureRequest{
		SessionID: "s1",
		URL:       "http://example.com/a",
		Options:   entity.DefaultOptions().WithPolicy(entity.CategoryScript, entity.PolicyRemove),
		Selectors: []string{"article"},
	}
	require.NoError(t, queue.Push(ctx, first))
	require.NoError(t, queue.Push(ctx, &entity.CaptureRequest{SessionID: "s2", URL: "http://example.com/b"}))

	size, err := queue.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	// 3. Pop in insertion order
	got, err := queue.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, entity.PolicyRemove, got.Options.PolicyFor(entity.CategoryScript))
	assert.Equal(t, []string{"article"}, got.Selectors)

	got, err = queue.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", got.SessionID)
}

func TestQueueRepo_CorruptPayload(t *testing.T) {
	mr, client := setup(t)
	queue := redis.NewQueueRepo(client)

	_, err := mr.Lpush("capture:queue", "{not json")
	require.NoError(t, err)

	_, err = queue.Pop(context.Background())
	assert.ErrorContains(t, err, "decode capture request")
}

func TestCache_LookupAndExpiry(t *testing.T) {
	mr, client := setup(t)
	cache := redis.NewCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Lookup(ctx, "s1", "http://example.com/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Remember(ctx, "s1", "http://example.com/a.png", "a.png"))

	ref, ok, err := cache.Lookup(ctx, "s1", "http://example.com/a.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a.png", ref)

	// Other sessions do not share entries.
	_, ok, err = cache.Lookup(ctx, "s2", "http://example.com/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Lookup(ctx, "s1", "http://example.com/a.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_UniqueNames(t *testing.T) {
	mr, client := setup(t)
	registry := redis.NewRegistry(client, redis.WithTTL(time.Hour))
	ctx := context.Background()
	settings := entity.NewSettings("s1")

	tests := []struct {
		name string
		call func() (string, error)
		want string
	}{
		{"first document", func() (string, error) { return registry.RegisterDocument(ctx, settings) }, "index"},
		{"second document", func() (string, error) { return registry.RegisterDocument(ctx, settings) }, "index_1"},
		{"file", func() (string, error) { return registry.RegisterFile(ctx, "s1", "logo.png") }, "logo.png"},
		{"same file differing in case", func() (string, error) { return registry.RegisterFile(ctx, "s1", "LOGO.png") }, "LOGO_1.png"},
		{"other session", func() (string, error) { return registry.RegisterFile(ctx, "s2", "logo.png") }, "logo.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, time.Hour, mr.TTL("capture:names:s1"))
}

func TestRegistry_BackendDown(t *testing.T) {
	mr, client := setup(t)
	registry := redis.NewRegistry(client)
	mr.Close()

	_, err := registry.RegisterFile(context.Background(), "s1", "a.png")
	assert.Error(t, err)
}
