package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
	"github.com/jack23912/webscrapbook/pkg/metrics"
)

var (
	// ErrInvalidURL is returned for capture requests without an absolute http(s) URL.
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")
	// ErrSessionNotFound is returned when nothing is known about a session.
	ErrSessionNotFound = errors.New("capture session not found")
)

// SessionManager defines the interface for submitting captures and checking
// their sessions.
type SessionManager interface {
	Submit(ctx context.Context, req *entity.CaptureRequest) (string, error)
	GetStatus(ctx context.Context, sessionID string) (*entity.SessionStatus, error)
}

type sessionManager struct {
	queue    repository.CaptureQueue
	records  repository.CaptureRecordRepository
	failures repository.FailedResourceRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewSessionManager creates a new SessionManager use case.
func NewSessionManager(
	queue repository.CaptureQueue,
	records repository.CaptureRecordRepository,
	failures repository.FailedResourceRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionManager{
		queue:    queue,
		records:  records,
		failures: failures,
		metrics:  m,
		logger:   logger.Named("sessions"),
	}
}

// ValidateRequest checks the URL and options of a capture request.
func ValidateRequest(req *entity.CaptureRequest) error {
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, req.URL)
	}
	return req.Options.Validate()
}

// Submit queues req under a new session and returns the session id.
func (uc *sessionManager) Submit(ctx context.Context, req *entity.CaptureRequest) (string, error) {
	if err := ValidateRequest(req); err != nil {
		return "", err
	}
	req.SessionID = uuid.NewString()

	if err := uc.queue.Push(ctx, req); err != nil {
		return "", fmt.Errorf("failed to queue capture: %w", err)
	}
	if size, err := uc.queue.Size(ctx); err == nil {
		uc.metrics.SetQueueDepth(size)
	}

	record := &entity.CaptureRecord{
		SessionID:  req.SessionID,
		URL:        req.URL,
		Status:     entity.CaptureStatusQueued,
		CapturedAt: time.Now(),
	}
	if err := uc.records.Save(ctx, record); err != nil {
		// The job is queued; the worker writes the record again when it starts.
		uc.logger.Error("Failed to record queued capture", zap.String("session_id", req.SessionID), zap.Error(err))
	}
	uc.logger.Info("Capture queued", zap.String("session_id", req.SessionID), zap.String("url", req.URL))
	return req.SessionID, nil
}

// GetStatus returns the record and the failed resources of a session.
func (uc *sessionManager) GetStatus(ctx context.Context, sessionID string) (*entity.SessionStatus, error) {
	record, err := uc.records.FindBySession(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	failures, err := uc.failures.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &entity.SessionStatus{SessionID: sessionID, Record: record, Failures: failures}, nil
}
