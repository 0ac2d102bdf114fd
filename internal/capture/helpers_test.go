package capture_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/jack23912/webscrapbook/internal/adapter/memory"
	"github.com/jack23912/webscrapbook/internal/capture"
	"github.com/jack23912/webscrapbook/internal/dom"
	"github.com/jack23912/webscrapbook/internal/entity"
)

const pageURL = "http://example.com/page.html"

// fakeFetcher returns the configured reference for known URLs and fails for
// everything else.
type fakeFetcher struct {
	mu    sync.Mutex
	refs  map[string]string
	calls []string
}

func newFakeFetcher(refs map[string]string) *fakeFetcher {
	if refs == nil {
		refs = map[string]string{}
	}
	return &fakeFetcher{refs: refs}
}

func (f *fakeFetcher) DownloadFile(_ context.Context, url string, _ entity.CaptureSettings, _ entity.CaptureOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if ref, ok := f.refs[url]; ok {
		return ref, nil
	}
	return "", fmt.Errorf("fetch %s: connection refused", url)
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// recordingSink keeps every saved artifact by document name.
type recordingSink struct {
	mu        sync.Mutex
	artifacts map[string]entity.Artifact
	err       error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{artifacts: map[string]entity.Artifact{}}
}

func (s *recordingSink) SaveDocument(_ context.Context, _ entity.CaptureSettings, a entity.Artifact) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[a.DocumentName] = a
	return a.DocumentName + ".html", nil
}

func (s *recordingSink) Get(name string) (entity.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[name]
	return a, ok
}

func (s *recordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts)
}

type fakeDelegate struct {
	mu       sync.Mutex
	result   *entity.CaptureResult
	err      error
	calls    []string
	settings []entity.CaptureSettings
}

func (d *fakeDelegate) GetFrameContent(_ context.Context, url string, settings entity.CaptureSettings, _ entity.CaptureOptions) (*entity.CaptureResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, url)
	d.settings = append(d.settings, settings)
	return d.result, d.err
}

type failingRegistry struct{}

func (failingRegistry) RegisterDocument(context.Context, entity.CaptureSettings) (string, error) {
	return "", errors.New("registry down")
}

func (failingRegistry) RegisterFile(context.Context, string, string) (string, error) {
	return "", errors.New("registry down")
}

type harness struct {
	engine   *capture.Engine
	fetcher  *fakeFetcher
	sink     *recordingSink
	delegate *fakeDelegate
	failures *memory.RecordStoreImpl
}

func newHarness(t *testing.T, refs map[string]string, cfg capture.Config) *harness {
	t.Helper()
	h := &harness{
		fetcher:  newFakeFetcher(refs),
		sink:     newRecordingSink(),
		delegate: &fakeDelegate{},
		failures: memory.NewRecordStore(),
	}
	h.engine = capture.NewEngine(capture.Collaborators{
		Registry: memory.NewRegistry(),
		Fetcher:  h.fetcher,
		Frames:   h.delegate,
		Sink:     h.sink,
		Failures: h.failures,
	}, cfg, nil, zaptest.NewLogger(t))
	return h
}

func (h *harness) capture(t *testing.T, doc *dom.LiveDocument, opts entity.CaptureOptions) *entity.CaptureResult {
	t.Helper()
	res, err := h.engine.Capture(context.Background(), doc, entity.NewSettings("session-1"), opts)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func parseDoc(t *testing.T, markup, url string) *dom.LiveDocument {
	t.Helper()
	doc, err := dom.ParseString(markup, url)
	require.NoError(t, err)
	return doc
}

func parseOutput(t *testing.T, content string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(content))
	require.NoError(t, err)
	return root
}

// comments returns the data of every comment under root.
func comments(root *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode {
			out = append(out, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func attrOf(t *testing.T, root *html.Node, tag, attr string) string {
	t.Helper()
	els := dom.Elements(root, tag)
	require.NotEmpty(t, els, "no <%s> in output", tag)
	val, ok := dom.Attr(els[0], attr)
	require.True(t, ok, "<%s> has no %s", tag, attr)
	return val
}
