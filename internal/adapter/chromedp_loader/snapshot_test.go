package chromedp_loader

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/emulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack23912/webscrapbook/internal/dom"
)

const fixture = `{
  "url": "http://example.com/",
  "contentType": "text/html",
  "readyState": "complete",
  "doctype": {"name": "html", "publicId": "", "systemId": ""},
  "root": {"type": 1, "tag": "html", "attrs": [["lang", "en"]], "children": [
    {"type": 1, "tag": "head", "children": [
      {"type": 1, "tag": "title", "children": [{"type": 3, "data": "Home"}]}
    ]},
    {"type": 1, "tag": "body", "children": [
      {"type": 8, "data": " nav "},
      {"type": 1, "tag": "canvas", "canvas": "data:image/png;base64,AAAA"},
      {"type": 1, "tag": "iframe", "attrs": [["src", "/inner.html"]], "frame": {
        "url": "http://example.com/inner.html",
        "contentType": "text/html",
        "readyState": "complete",
        "doctype": null,
        "root": {"type": 1, "tag": "html", "children": [
          {"type": 1, "tag": "body", "children": [{"type": 3, "data": "inner"}]}
        ]}
      }},
      {"type": 1, "tag": "iframe", "attrs": [["src", "https://other.example/"]]},
      {"type": 1, "tag": "svg", "ns": "http://www.w3.org/2000/svg", "children": [
        {"type": 1, "tag": "linearGradient", "ns": "http://www.w3.org/2000/svg"}
      ]}
    ]}
  ]}
}`

func TestToLiveDocument(t *testing.T) {
	var snap documentSnapshot
	require.NoError(t, json.Unmarshal([]byte(fixture), &snap))

	doc := toLiveDocument(&snap)

	assert.True(t, doc.IsMarkup())
	assert.Equal(t, "<!DOCTYPE html>\n", dom.DoctypeString(doc.Doctype()))
	out := dom.OuterHTML(doc.DocumentElement())
	assert.True(t, strings.HasPrefix(out, `<html lang="en"><head><title>Home</title></head><body><!-- nav --><canvas></canvas>`), out)
	assert.Contains(t, out, "<linearGradient></linearGradient>")

	canvases := dom.Elements(doc.Root, "canvas")
	require.Len(t, canvases, 1)
	data, ok := doc.CanvasData(canvases[0])
	assert.True(t, ok)
	assert.Equal(t, "data:image/png;base64,AAAA", data)

	frames := dom.Elements(doc.Root, "iframe")
	require.Len(t, frames, 2)
	child, ok := doc.FrameDocument(frames[0])
	require.True(t, ok)
	assert.Equal(t, "http://example.com/inner.html", child.URL)
	assert.Nil(t, child.Doctype())
	assert.Equal(t, "<html><body>inner</body></html>", dom.OuterHTML(child.DocumentElement()))

	_, ok = doc.FrameDocument(frames[1])
	assert.False(t, ok, "cross-origin frames stay unbound")
}

func TestToLiveDocument_NoRoot(t *testing.T) {
	doc := toLiveDocument(&documentSnapshot{URL: "http://example.com/a.pdf", ContentType: "application/pdf"})

	assert.Nil(t, doc.Root)
	assert.False(t, doc.IsMarkup())
	assert.Equal(t, dom.ReadyStateComplete, doc.ReadyState)
}

func TestSnapshotExpression(t *testing.T) {
	expr := snapshotExpression(3)

	assert.Contains(t, expr, "var MAX_FRAME_DEPTH = 3;")
	assert.NotContains(t, expr, "%!")
}

func TestLoaderActions(t *testing.T) {
	plain := &ChromedpLoader{maxFrameDepth: 2}
	assert.Len(t, plain.actions("http://example.com/", new([]byte)), 3)

	agents := []string{"agent-a", "agent-b"}
	i := 0
	rotating := &ChromedpLoader{maxFrameDepth: 2}
	WithUserAgents(func() string {
		ua := agents[i%len(agents)]
		i++
		return ua
	})(rotating)

	first := rotating.actions("http://example.com/", new([]byte))
	require.Len(t, first, 4)
	override, ok := first[0].(*emulation.SetUserAgentOverrideParams)
	require.True(t, ok)
	assert.Equal(t, "agent-a", override.UserAgent)

	second := rotating.actions("http://example.com/", new([]byte))
	assert.Equal(t, "agent-b", second[0].(*emulation.SetUserAgentOverrideParams).UserAgent)
}
