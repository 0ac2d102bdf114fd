package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack23912/webscrapbook/internal/adapter/memory"
	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
)

func TestRegistry_NumbersCollisions(t *testing.T) {
	ctx := context.Background()
	r := memory.NewRegistry()

	names := []string{}
	for _, file := range []string{"logo.png", "LOGO.png", "logo.png", "style.css"} {
		name, err := r.RegisterFile(ctx, "s1", file)
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"logo.png", "LOGO_1.png", "logo_2.png", "style.css"}, names)

	doc, err := r.RegisterDocument(ctx, entity.NewSettings("s1"))
	require.NoError(t, err)
	assert.Equal(t, "index", doc)
	doc, err = r.RegisterDocument(ctx, entity.NewSettings("s1"))
	require.NoError(t, err)
	assert.Equal(t, "index_1", doc)

	other, err := r.RegisterFile(ctx, "s2", "logo.png")
	require.NoError(t, err)
	assert.Equal(t, "logo.png", other)
}

func TestRegistry_ConcurrentNamesAreUnique(t *testing.T) {
	r := memory.NewRegistry()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := r.RegisterFile(context.Background(), "s1", "a.js")
			assert.NoError(t, err)
			mu.Lock()
			seen[name] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	c := memory.NewCache()

	_, ok, err := c.Lookup(ctx, "s1", "https://example.com/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Remember(ctx, "s1", "https://example.com/a.png", "a.png"))
	ref, ok, err := c.Lookup(ctx, "s1", "https://example.com/a.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a.png", ref)

	_, ok, _ = c.Lookup(ctx, "s2", "https://example.com/a.png")
	assert.False(t, ok)
}

func TestRecordStore_Records(t *testing.T) {
	ctx := context.Background()
	s := memory.NewRecordStore()

	_, err := s.FindBySession(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	first := &entity.CaptureRecord{SessionID: "s1", URL: "https://example.com/", Status: entity.CaptureStatusQueued}
	require.NoError(t, s.Save(ctx, first))
	second := &entity.CaptureRecord{SessionID: "s1", URL: "https://example.com/", Status: entity.CaptureStatusCompleted}
	require.NoError(t, s.Save(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := s.FindBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.CaptureStatusCompleted, got.Status)

	got.Status = "mutated"
	again, _ := s.FindBySession(ctx, "s1")
	assert.Equal(t, entity.CaptureStatusCompleted, again.Status)
}

func TestRecordStore_Failures(t *testing.T) {
	ctx := context.Background()
	s := memory.NewRecordStore()

	failed := func(reason string) *entity.FailedResource {
		return &entity.FailedResource{SessionID: "s1", URL: "https://example.com/a.png", Kind: entity.FailureKindDownload, FailureReason: reason}
	}
	require.NoError(t, s.SaveOrUpdate(ctx, failed("timeout")))
	require.NoError(t, s.SaveOrUpdate(ctx, failed("404")))
	require.NoError(t, s.SaveOrUpdate(ctx, &entity.FailedResource{SessionID: "s1", URL: "https://example.com/f", Kind: entity.FailureKindFrame}))

	list, err := s.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Attempts)
	assert.Equal(t, "404", list[0].FailureReason)
	assert.Equal(t, entity.FailureKindFrame, list[1].Kind)

	empty, err := s.ListBySession(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
