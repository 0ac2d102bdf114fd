package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jack23912/webscrapbook/internal/repository"
)

// WorkerPool runs queued captures on a fixed number of workers.
type WorkerPool struct {
	capturer     Capturer
	workers      int
	pollInterval time.Duration
	jobTimeout   time.Duration
	logger       *zap.Logger
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// NewWorkerPool creates a pool. Idle workers poll the queue every
// pollInterval; each job gets jobTimeout.
func NewWorkerPool(capturer Capturer, workers int, pollInterval, jobTimeout time.Duration, logger *zap.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		capturer:     capturer,
		workers:      workers,
		pollInterval: pollInterval,
		jobTimeout:   jobTimeout,
		logger:       logger.Named("worker"),
		stopChan:     make(chan struct{}),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop waits for running jobs to finish.
func (p *WorkerPool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	logger := p.logger.With(zap.Int("worker", id))
	logger.Debug("Worker started")
	for {
		select {
		case <-p.stopChan:
			logger.Debug("Worker stopped")
			return
		default:
		}

		if p.runOne(logger) {
			continue
		}
		select {
		case <-p.stopChan:
			logger.Debug("Worker stopped")
			return
		case <-time.After(p.pollInterval):
		}
	}
}

// runOne processes one job. It reports false when the worker should wait
// before polling again.
func (p *WorkerPool) runOne(logger *zap.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()

	err := p.capturer.ProcessFromQueue(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, repository.ErrQueueEmpty):
	default:
		logger.Warn("Capture job failed", zap.Error(err))
	}
	return false
}
