package chromedp_loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jack23912/webscrapbook/internal/dom"
	"github.com/jack23912/webscrapbook/internal/repository"
)

// ChromedpLoader implements DocumentLoader with a headless browser. The
// document is captured as rendered, including same-origin frame documents
// and canvas pixels.
type ChromedpLoader struct {
	allocatorPool *sync.Pool
	timeout       time.Duration
	maxFrameDepth int
	userAgent     func() string
	logger        *zap.Logger

	mu      sync.Mutex
	cancels []context.CancelFunc
}

type Option func(*ChromedpLoader)

// WithUserAgents overrides the browser user agent on every page with the
// value returned by next.
func WithUserAgents(next func() string) Option {
	return func(l *ChromedpLoader) {
		l.userAgent = next
	}
}

// NewChromedpLoader creates a loader backed by a pool of browser allocators.
func NewChromedpLoader(maxConcurrency int, pageLoadTimeout time.Duration, maxFrameDepth int, logger *zap.Logger, opts ...Option) *ChromedpLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &ChromedpLoader{
		timeout:       pageLoadTimeout,
		maxFrameDepth: maxFrameDepth,
		logger:        logger.Named("chromedp"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.allocatorPool = &sync.Pool{
		New: func() any {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.UserAgent(`Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`),
			)
			allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
			l.mu.Lock()
			l.cancels = append(l.cancels, cancel)
			l.mu.Unlock()
			return allocCtx
		},
	}

	// Pre-warm the pool
	for i := 0; i < maxConcurrency; i++ {
		allocCtx := l.allocatorPool.Get().(context.Context)
		l.allocatorPool.Put(allocCtx)
	}
	return l
}

// Load navigates to url, waits for the document and snapshots it.
func (l *ChromedpLoader) Load(ctx context.Context, url string) (*dom.LiveDocument, error) {
	allocCtx := l.allocatorPool.Get().(context.Context)
	defer l.allocatorPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(l.logger.Sugar().Debugf))
	defer cancel()
	taskCtx, cancel = context.WithTimeout(taskCtx, l.timeout)
	defer cancel()
	// Stop loading when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	var raw []byte
	err := chromedp.Run(taskCtx, l.actions(url, &raw)...)
	if err != nil {
		l.logger.Error("Failed to load document", zap.String("url", url), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", repository.ErrLoadTimeout, url)
		}
		return nil, fmt.Errorf("load %s: %w", url, err)
	}

	var snap documentSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot of %s: %w", url, err)
	}
	doc := toLiveDocument(&snap)
	l.logger.Info("Document loaded",
		zap.String("url", doc.URL),
		zap.Int("frames", len(doc.Frames)),
		zap.Int("canvases", len(doc.Canvases)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return doc, nil
}

func (l *ChromedpLoader) actions(url string, raw *[]byte) []chromedp.Action {
	var actions []chromedp.Action
	if l.userAgent != nil {
		actions = append(actions, emulation.SetUserAgentOverride(l.userAgent()))
	}
	return append(actions,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(snapshotExpression(l.maxFrameDepth), raw),
	)
}

// Close shuts down every browser started by the loader.
func (l *ChromedpLoader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, cancel := range l.cancels {
		cancel()
	}
	l.cancels = nil
}
