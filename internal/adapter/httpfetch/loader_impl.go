package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/jack23912/webscrapbook/internal/dom"
)

// LoaderImpl implements DocumentLoader with a plain HTTP GET. Nothing is
// rendered, so frames are never bound and are captured through the frame
// delegate.
type LoaderImpl struct {
	client   *http.Client
	agents   *Agents
	maxBytes int64
	logger   *zap.Logger
}

// NewLoader creates a static loader.
func NewLoader(client *http.Client, agents *Agents, logger *zap.Logger) *LoaderImpl {
	if client == nil {
		client = http.DefaultClient
	}
	if agents == nil {
		agents = NewAgents(nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoaderImpl{client: client, agents: agents, maxBytes: DefaultMaxBytes, logger: logger.Named("loader")}
}

// Load fetches url and parses it when it is markup. Other content yields a
// document without a tree, which the engine captures as a file.
func (l *LoaderImpl) Load(ctx context.Context, url string) (*dom.LiveDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.agents.UserAgent())

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	finalURL := resp.Request.URL.String()
	contentType := resp.Header.Get("Content-Type")
	if !dom.IsMarkupType(contentType) {
		l.logger.Debug("Loaded non-markup document", zap.String("url", finalURL), zap.String("content_type", contentType))
		return &dom.LiveDocument{URL: finalURL, ContentType: contentType, ReadyState: dom.ReadyStateComplete}, nil
	}

	// The tree is kept as UTF-8 whatever the page was encoded in.
	body, err := charset.NewReader(io.LimitReader(resp.Body, l.maxBytes), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", finalURL, err)
	}
	parsed, err := dom.Parse(body, finalURL, contentType)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Loaded document", zap.String("url", finalURL))
	return parsed, nil
}
