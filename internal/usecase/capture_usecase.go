package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jack23912/webscrapbook/internal/capture"
	"github.com/jack23912/webscrapbook/internal/dom"
	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
	"github.com/jack23912/webscrapbook/pkg/metrics"
)

// Capturer defines the interface for running captures.
type Capturer interface {
	// Capture loads req.URL and captures it into the session of req.
	Capture(ctx context.Context, req *entity.CaptureRequest) (*entity.CaptureResult, error)
	// ProcessFromQueue pops one job and captures it. It returns
	// repository.ErrQueueEmpty when nothing is waiting.
	ProcessFromQueue(ctx context.Context) error
}

// Dependencies wires a CaptureService. Queue, Records and Failures may be nil.
type Dependencies struct {
	Loader   repository.DocumentLoader
	Registry repository.NameRegistry
	Fetcher  repository.ResourceFetcher
	Sink     repository.DocumentSink
	Queue    repository.CaptureQueue
	Records  repository.CaptureRecordRepository
	Failures repository.FailedResourceRepository
}

// CaptureService loads documents and runs them through the capture engine.
// It is also the engine's frame delegate: frames the loader could not bind
// are loaded on their own and captured into the same session.
type CaptureService struct {
	loader  repository.DocumentLoader
	queue   repository.CaptureQueue
	records repository.CaptureRecordRepository
	engine  *capture.Engine
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCaptureService creates a CaptureService and its engine.
func NewCaptureService(deps Dependencies, cfg capture.Config, m *metrics.Metrics, logger *zap.Logger) *CaptureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CaptureService{
		loader:  deps.Loader,
		queue:   deps.Queue,
		records: deps.Records,
		metrics: m,
		logger:  logger.Named("usecase"),
	}
	s.engine = capture.NewEngine(capture.Collaborators{
		Registry: deps.Registry,
		Fetcher:  deps.Fetcher,
		Frames:   s,
		Sink:     deps.Sink,
		Failures: deps.Failures,
	}, cfg, m, logger)
	return s
}

// Capture loads req.URL and captures it. An empty session id is replaced by
// a new one, visible in req afterwards.
func (s *CaptureService) Capture(ctx context.Context, req *entity.CaptureRequest) (*entity.CaptureResult, error) {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}
	s.logger.Info("Capturing document", zap.String("session_id", req.SessionID), zap.String("url", req.URL))
	s.saveRecord(ctx, &entity.CaptureRecord{SessionID: req.SessionID, URL: req.URL, Status: entity.CaptureStatusCapturing})

	res, err := s.capture(ctx, req)
	if err != nil {
		s.logger.Error("Capture failed", zap.String("session_id", req.SessionID), zap.String("url", req.URL), zap.Error(err))
		s.saveRecord(ctx, &entity.CaptureRecord{
			SessionID:  req.SessionID,
			URL:        req.URL,
			Status:     entity.CaptureStatusFailed,
			FailReason: err.Error(),
		})
		return nil, err
	}

	s.saveRecord(ctx, &entity.CaptureRecord{
		SessionID:    req.SessionID,
		URL:          req.URL,
		DocumentName: res.DocumentName,
		Reference:    res.Reference,
		Mime:         res.Mime,
		Bytes:        len(res.Content),
		Status:       entity.CaptureStatusCompleted,
	})
	return res, nil
}

func (s *CaptureService) capture(ctx context.Context, req *entity.CaptureRequest) (*entity.CaptureResult, error) {
	doc, err := s.loader.Load(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", req.URL, err)
	}
	if req.Options.SelectionOnly && len(req.Selectors) > 0 {
		sel, err := dom.SelectionFromSelectors(doc, req.Selectors)
		if err != nil {
			return nil, err
		}
		doc.Selection = sel
	}
	return s.engine.Capture(ctx, doc, entity.NewSettings(req.SessionID), req.Options)
}

// GetFrameContent captures the frame at url as a document of the session
// named by settings.
func (s *CaptureService) GetFrameContent(ctx context.Context, url string, settings entity.CaptureSettings, options entity.CaptureOptions) (*entity.CaptureResult, error) {
	doc, err := s.loader.Load(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("load frame %s: %w", url, err)
	}
	return s.engine.Capture(ctx, doc, settings, options)
}

// ProcessFromQueue fetches a single job from the queue and captures it.
func (s *CaptureService) ProcessFromQueue(ctx context.Context) error {
	if s.queue == nil {
		return repository.ErrQueueEmpty
	}
	req, err := s.queue.Pop(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrQueueEmpty) {
			return err
		}
		return fmt.Errorf("failed to pop capture job from queue: %w", err)
	}
	if size, err := s.queue.Size(ctx); err == nil {
		s.metrics.SetQueueDepth(size)
	}

	_, err = s.Capture(ctx, req)
	return err
}

func (s *CaptureService) saveRecord(ctx context.Context, record *entity.CaptureRecord) {
	if s.records == nil {
		return
	}
	record.CapturedAt = time.Now()
	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Warn("Failed to save capture record", zap.String("session_id", record.SessionID), zap.Error(err))
	}
}
