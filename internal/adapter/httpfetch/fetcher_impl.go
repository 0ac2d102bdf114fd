package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
	"github.com/jack23912/webscrapbook/pkg/utils"
)

// DefaultMaxBytes caps the size of a single downloaded resource.
const DefaultMaxBytes = 50 << 20

var (
	// ErrUnsupportedScheme is returned for URLs that are neither http(s) nor inline.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrTooLarge is returned when a resource exceeds the size cap.
	ErrTooLarge = errors.New("resource too large")
)

// StatusError reports an unsuccessful HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Fetcher implements ResourceFetcher over HTTP. Downloads are named through
// the registry and written to the blob store.
type Fetcher struct {
	client   *http.Client
	registry repository.NameRegistry
	blobs    repository.BlobStore
	cache    repository.ResourceCache
	agents   *Agents
	maxBytes int64
	group    singleflight.Group
	logger   *zap.Logger
}

type Option func(*Fetcher)

// WithClient sets the HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithCache makes the fetcher reuse downloads within a session.
func WithCache(cache repository.ResourceCache) Option {
	return func(f *Fetcher) {
		f.cache = cache
	}
}

// WithAgents sets the user agent rotation.
func WithAgents(agents *Agents) Option {
	return func(f *Fetcher) {
		f.agents = agents
	}
}

// WithMaxBytes sets the size cap of a single resource.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(registry repository.NameRegistry, blobs repository.BlobStore, logger *zap.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		client:   http.DefaultClient,
		registry: registry,
		blobs:    blobs,
		maxBytes: DefaultMaxBytes,
		logger:   logger.Named("fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.agents == nil {
		f.agents = NewAgents(nil, nil)
	}
	return f
}

// DownloadFile stores the resource at rawURL in the session and returns its
// file name. Inline URLs are returned unchanged.
func (f *Fetcher) DownloadFile(ctx context.Context, rawURL string, settings entity.CaptureSettings, _ entity.CaptureOptions) (string, error) {
	if utils.IsInlineScheme(rawURL) {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	u.Fragment = ""
	key := u.String()

	ref, err, _ := f.group.Do(settings.SessionID+"\x00"+key, func() (any, error) {
		return f.download(ctx, u, settings.SessionID)
	})
	if err != nil {
		return "", err
	}
	return ref.(string), nil
}

func (f *Fetcher) download(ctx context.Context, u *url.URL, sessionID string) (string, error) {
	key := u.String()
	if f.cache != nil {
		ref, ok, err := f.cache.Lookup(ctx, sessionID, key)
		if err != nil {
			f.logger.Warn("Resource cache lookup failed", zap.String("url", key), zap.Error(err))
		}
		if ok {
			return ref, nil
		}
	}

	data, contentType, err := f.get(ctx, key)
	if err != nil {
		return "", err
	}

	name, err := f.registry.RegisterFile(ctx, sessionID, utils.FilenameFromURL(u, contentType))
	if err != nil {
		return "", fmt.Errorf("register file: %w", err)
	}
	if err := f.blobs.WriteFile(ctx, sessionID, name, data); err != nil {
		return "", err
	}
	if f.cache != nil {
		if err := f.cache.Remember(ctx, sessionID, key, name); err != nil {
			f.logger.Warn("Failed to remember resource", zap.String("url", key), zap.Error(err))
		}
	}
	f.logger.Debug("Resource saved", zap.String("url", key), zap.String("file", name), zap.Int("bytes", len(data)))
	return name, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", f.agents.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, rawURL, f.maxBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
