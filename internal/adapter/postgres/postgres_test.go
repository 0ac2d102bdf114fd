package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack23912/webscrapbook/internal/adapter/postgres"
	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
)

// openPool connects to the database named by WEBSCRAPBOOK_TEST_DATABASE_URL.
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("WEBSCRAPBOOK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WEBSCRAPBOOK_TEST_DATABASE_URL not set")
	}
	db, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, postgres.EnsureSchema(context.Background(), db))
	return db
}

func TestCaptureRecordRepo(t *testing.T) {
	db := openPool(t)
	repo := postgres.NewCaptureRecordRepo(db)
	ctx := context.Background()
	sessionID := uuid.NewString()

	_, err := repo.FindBySession(ctx, sessionID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	record := &entity.CaptureRecord{SessionID: sessionID, URL: "http://example.com/", Status: entity.CaptureStatusQueued, CapturedAt: time.Now().UTC()}
	require.NoError(t, repo.Save(ctx, record))
	assert.NotZero(t, record.ID)

	record.Status = entity.CaptureStatusCompleted
	record.Reference = "index.html"
	require.NoError(t, repo.Save(ctx, record))

	got, err := repo.FindBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, entity.CaptureStatusCompleted, got.Status)
	assert.Equal(t, "index.html", got.Reference)
}

func TestFailedResourceRepo(t *testing.T) {
	db := openPool(t)
	repo := postgres.NewFailedResourceRepo(db)
	ctx := context.Background()
	sessionID := uuid.NewString()

	failed := &entity.FailedResource{
		SessionID:     sessionID,
		URL:           "http://example.com/a.png",
		Kind:          entity.FailureKindDownload,
		FailureReason: "timeout",
		Fallback:      "http://example.com/a.png",
		LastAttemptAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveOrUpdate(ctx, failed))
	require.NoError(t, repo.SaveOrUpdate(ctx, failed))

	list, err := repo.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Attempts)
}
