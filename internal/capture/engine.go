package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/semaphore"

	"github.com/jack23912/webscrapbook/internal/dom"
	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
	"github.com/jack23912/webscrapbook/pkg/metrics"
)

var (
	// ErrDocumentNotReady is returned for documents that are still loading.
	ErrDocumentNotReady = errors.New("document is not ready")
	// ErrNilDocument is returned when there is no document to capture.
	ErrNilDocument = errors.New("no document to capture")
	// ErrNoFetcher is the download failure when no fetcher is configured.
	ErrNoFetcher = errors.New("no resource fetcher configured")
	// ErrPanicked wraps a panic raised by a collaborator during a sub-operation.
	ErrPanicked = errors.New("sub-operation panicked")
)

// Config tunes an Engine.
type Config struct {
	// MaxFrameDepth bounds frame nesting. Frames deeper than this keep
	// their absolute URL.
	MaxFrameDepth int
	// FetchConcurrency bounds concurrent downloads across all invocations.
	FetchConcurrency int64
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{MaxFrameDepth: 5, FetchConcurrency: 16}
}

// Collaborators are the services an Engine delegates to. Frames and
// Failures may be nil.
type Collaborators struct {
	Registry repository.NameRegistry
	Fetcher  repository.ResourceFetcher
	Frames   repository.FrameDelegate
	Sink     repository.DocumentSink
	Failures repository.FailedResourceRepository
}

// Engine captures live documents into self-contained artifacts. It is safe
// for concurrent use; each Capture call is an independent invocation.
type Engine struct {
	registry repository.NameRegistry
	fetcher  repository.ResourceFetcher
	frames   repository.FrameDelegate
	sink     repository.DocumentSink
	failures repository.FailedResourceRepository

	cfg     Config
	rules   ruleTable
	limiter *semaphore.Weighted
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(c Collaborators, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Engine {
	def := DefaultConfig()
	if cfg.MaxFrameDepth <= 0 {
		cfg.MaxFrameDepth = def.MaxFrameDepth
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = def.FetchConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry: c.Registry,
		fetcher:  c.Fetcher,
		frames:   c.Frames,
		sink:     c.Sink,
		failures: c.Failures,
		cfg:      cfg,
		rules:    defaultRules(),
		limiter:  semaphore.NewWeighted(cfg.FetchConcurrency),
		metrics:  m,
		logger:   logger.Named("capture"),
	}
}

// Capture snapshots doc into an artifact handed to the document sink and
// returns how the artifact is referenced. Failed sub-operations fall back to
// the original URLs; only a failure to save the document itself is returned.
func (e *Engine) Capture(ctx context.Context, doc *dom.LiveDocument, settings entity.CaptureSettings, options entity.CaptureOptions) (*entity.CaptureResult, error) {
	return e.capture(ctx, doc, settings, options, nil)
}

func (e *Engine) capture(ctx context.Context, doc *dom.LiveDocument, settings entity.CaptureSettings, options entity.CaptureOptions, ancestors []*dom.LiveDocument) (result *entity.CaptureResult, err error) {
	start := time.Now()
	defer func() {
		status := entity.CaptureStatusCompleted
		switch {
		case errors.Is(err, ErrDocumentNotReady):
			status = "not_ready"
		case err != nil:
			status = entity.CaptureStatusFailed
		}
		e.metrics.IncCaptures(status)
		e.metrics.ObserveCapture(settings.IsMainFrame, time.Since(start))
	}()

	if doc == nil {
		return nil, ErrNilDocument
	}
	if doc.ReadyState == dom.ReadyStateLoading {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotReady, doc.URL)
	}
	if !doc.IsMarkup() {
		if !options.SaveInlineAsHTML {
			return e.captureFile(ctx, doc, settings, options)
		}
		if doc.Root == nil {
			doc = inlineDocument(doc)
		}
	}

	inv := &invocation{
		engine:    e,
		doc:       doc,
		settings:  settings,
		options:   options,
		ancestors: ancestors,
		name:      e.registerDocument(ctx, settings),
		refs:      NewReferenceTable(),
	}
	inv.logger = e.logger.With(
		zap.String("session_id", settings.SessionID),
		zap.String("url", doc.URL),
		zap.String("document", inv.name),
		zap.Int("frame_depth", settings.FrameDepth),
	)
	inv.tracker = NewTracker(inv.logger)
	return inv.run(ctx)
}

// registerDocument falls back to the requested name when the registry is
// unavailable.
func (e *Engine) registerDocument(ctx context.Context, settings entity.CaptureSettings) string {
	if e.registry == nil {
		return settings.DocumentName
	}
	name, err := e.registry.RegisterDocument(ctx, settings)
	if err != nil || name == "" {
		e.logger.Warn("Document name registration failed, using requested name",
			zap.String("session_id", settings.SessionID),
			zap.String("document", settings.DocumentName),
			zap.Error(err),
		)
		return settings.DocumentName
	}
	return name
}

// download stores url through the fetcher under the engine-wide limit. A
// panicking fetcher fails the download.
func (e *Engine) download(ctx context.Context, url string, settings entity.CaptureSettings, options entity.CaptureOptions) (ref string, err error) {
	if e.fetcher == nil {
		return "", ErrNoFetcher
	}
	if err := e.limiter.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer e.limiter.Release(1)
	defer func() {
		if r := recover(); r != nil {
			ref, err = "", fmt.Errorf("download %s: %w: %v", url, ErrPanicked, r)
		}
	}()
	return e.fetcher.DownloadFile(ctx, url, settings, options)
}

// recordFailure reports a sub-operation that fell back to fallback.
func (e *Engine) recordFailure(ctx context.Context, settings entity.CaptureSettings, kind, url, fallback string, cause error) {
	e.metrics.IncSubOperations(kind, "fallback")
	e.logger.Warn("Sub-operation failed, keeping original reference",
		zap.String("session_id", settings.SessionID),
		zap.String("kind", kind),
		zap.String("url", url),
		zap.Error(cause),
	)
	if e.failures == nil {
		return
	}
	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}
	failed := &entity.FailedResource{
		SessionID:     settings.SessionID,
		URL:           url,
		Kind:          kind,
		FailureReason: reason,
		Fallback:      fallback,
		LastAttemptAt: time.Now(),
	}
	if err := e.failures.SaveOrUpdate(ctx, failed); err != nil {
		e.logger.Error("Failed to record failed resource", zap.String("url", url), zap.Error(err))
	}
}

// inlineDocument gives non-markup content a document form: images are shown
// by an img element, anything else by an embed.
func inlineDocument(doc *dom.LiveDocument) *dom.LiveDocument {
	tag, attr := "embed", "src"
	if strings.HasPrefix(doc.MediaType(), "image/") {
		tag = "img"
	}
	root := &html.Node{Type: html.DocumentNode}
	htmlEl := dom.NewElement("html")
	body := dom.NewElement("body")
	body.AppendChild(dom.NewElement(tag, html.Attribute{Key: attr, Val: doc.URL}))
	htmlEl.AppendChild(dom.NewElement("head"))
	htmlEl.AppendChild(body)
	root.AppendChild(htmlEl)
	return &dom.LiveDocument{
		URL:         doc.URL,
		ContentType: dom.ContentTypeHTML,
		ReadyState:  doc.ReadyState,
		Root:        root,
	}
}

// invocation is the state of one Capture call. Everything but the
// operations started on its tracker runs on the calling goroutine.
type invocation struct {
	engine    *Engine
	doc       *dom.LiveDocument
	settings  entity.CaptureSettings
	options   entity.CaptureOptions
	ancestors []*dom.LiveDocument
	name      string
	refs      *ReferenceTable
	tracker   *Tracker
	root      *html.Node
	logger    *zap.Logger
}

func (inv *invocation) run(ctx context.Context) (*entity.CaptureResult, error) {
	inv.refs.Tag(inv.doc.Root, "frame", "iframe", "canvas")
	inv.root = Extract(inv.doc, inv.options.SelectionOnly, inv.refs)
	inv.dispatch(ctx)
	inv.logger.Debug("Dispatch finished", zap.Int("pending", inv.tracker.Pending()))

	var (
		result *entity.CaptureResult
		err    error
	)
	if jerr := inv.tracker.Join(func() {
		result, err = inv.assemble(ctx)
	}); jerr != nil {
		return nil, jerr
	}
	if err != nil {
		return nil, err
	}
	inv.logger.Info("Document captured",
		zap.String("reference", result.Reference),
		zap.Int("sub_operations", inv.tracker.Scheduled()),
	)
	return result, nil
}

// fetch downloads url, falling back to url itself on failure.
func (inv *invocation) fetch(ctx context.Context, url string) string {
	ref, err := inv.engine.download(ctx, url, inv.settings, inv.options)
	if err != nil || ref == "" {
		if err == nil {
			err = errors.New("empty reference")
		}
		inv.engine.recordFailure(ctx, inv.settings, entity.FailureKindDownload, url, url, err)
		return url
	}
	inv.engine.metrics.IncSubOperations(entity.FailureKindDownload, "saved")
	return ref
}

// schedule starts op on the tracker. If op panics, its completion is
// fallback called with the panic as error.
func (inv *invocation) schedule(op Operation, fallback func(err error) func()) {
	inv.tracker.Go(func() (apply func()) {
		defer func() {
			if r := recover(); r != nil {
				apply = fallback(fmt.Errorf("%w: %v", ErrPanicked, r))
			}
		}()
		return op()
	})
}

func (inv *invocation) saveAttr(ctx context.Context, ref reference) {
	url, ok := dom.Attr(ref.node, ref.attr)
	if !ok || url == "" {
		return
	}
	inv.schedule(func() func() {
		local := inv.fetch(ctx, url)
		return func() { dom.SetAttr(ref.node, ref.attr, local) }
	}, func(err error) func() {
		inv.engine.recordFailure(ctx, inv.settings, entity.FailureKindDownload, url, url, err)
		return func() { dom.SetAttr(ref.node, ref.attr, url) }
	})
}

// saveSrcset fetches every candidate separately and rewrites the attribute
// once all of them resolved.
func (inv *invocation) saveSrcset(ctx context.Context, ref reference) {
	srcset, ok := dom.Attr(ref.node, ref.attr)
	if !ok {
		return
	}
	urls := dom.SrcsetURLs(srcset)
	if len(urls) == 0 {
		return
	}
	resolved := make([]string, len(urls))
	remaining := len(urls)
	done := func(i int, local string) func() {
		return func() {
			resolved[i] = local
			remaining--
			if remaining == 0 {
				dom.SetAttr(ref.node, ref.attr, dom.ReplaceSrcsetURLs(srcset, resolved))
			}
		}
	}
	for i, u := range urls {
		inv.schedule(func() func() {
			return done(i, inv.fetch(ctx, u))
		}, func(err error) func() {
			inv.engine.recordFailure(ctx, inv.settings, entity.FailureKindDownload, u, u, err)
			return done(i, u)
		})
	}
}
