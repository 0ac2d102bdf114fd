package capture_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/jack23912/webscrapbook/internal/capture"
	"github.com/jack23912/webscrapbook/internal/dom"
	"github.com/jack23912/webscrapbook/internal/entity"
)

func selectionOnly() entity.CaptureOptions {
	opts := entity.DefaultOptions()
	opts.SelectionOnly = true
	return opts
}

func textOf(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return c
		}
	}
	return nil
}

func TestSelection_WholeBodyMatchesFullCapture(t *testing.T) {
	markup := `<!DOCTYPE html><html><head><title>t</title></head><body class="main"><h1>Title</h1><p>one <b>two</b></p></body></html>`

	full := newHarness(t, nil, capture.Config{}).capture(t, parseDoc(t, markup, pageURL), entity.DefaultOptions())

	doc := parseDoc(t, markup, pageURL)
	body := dom.Elements(doc.Root, "body")[0]
	doc.Selection = &dom.Selection{Ranges: []dom.Range{dom.RangeSelectingContents(body)}}
	selected := newHarness(t, nil, capture.Config{}).capture(t, doc, selectionOnly())

	stripped := strings.NewReplacer(
		"<!--"+capture.FragmentMarker+"-->", "",
		"<!--"+capture.FragmentEndMarker+"-->", "",
	).Replace(selected.Content)
	assert.Equal(t, full.Content, stripped)
	assert.True(t, strings.HasPrefix(selected.Content, "<!DOCTYPE html>\n"))
}

func TestSelection_SharedBranchGetsSplitter(t *testing.T) {
	doc := parseDoc(t, `<div><p>alpha beta gamma</p><p>other</p></div>`, pageURL)
	text := textOf(dom.Elements(doc.Root, "p")[0])
	doc.Selection = &dom.Selection{Ranges: []dom.Range{
		{StartContainer: text, StartOffset: 0, EndContainer: text, EndOffset: 5},
		{StartContainer: text, StartOffset: 11, EndContainer: text, EndOffset: 16},
	}}

	res := newHarness(t, nil, capture.Config{}).capture(t, doc, selectionOnly())

	assert.Contains(t, res.Content, `<body><div><p>`+
		`<!--DOCUMENT_FRAGMENT-->alpha<!--/DOCUMENT_FRAGMENT-->`+
		`<!--DOCUMENT_FRAGMENT_SPLITTER--> … <!--/DOCUMENT_FRAGMENT_SPLITTER-->`+
		`<!--DOCUMENT_FRAGMENT-->gamma<!--/DOCUMENT_FRAGMENT-->`+
		`</p></div></body>`)
	assert.Equal(t, 1, strings.Count(res.Content, "<p>"))
	assert.NotContains(t, res.Content, "other")
}

func TestSelection_SeparateBranchesKeepOrder(t *testing.T) {
	doc := parseDoc(t, `<div><p>first</p></div><section><p>second</p></section>`, pageURL)
	ps := dom.Elements(doc.Root, "p")
	doc.Selection = &dom.Selection{Ranges: []dom.Range{
		dom.RangeSelectingContents(ps[0]),
		dom.RangeSelectingContents(ps[1]),
	}}

	res := newHarness(t, nil, capture.Config{}).capture(t, doc, selectionOnly())

	assert.NotContains(t, res.Content, capture.SplitterMarker)
	assert.Less(t, strings.Index(res.Content, "first"), strings.Index(res.Content, "second"))
	assert.Equal(t, 1, strings.Count(res.Content, "<body>"))
}

func TestSelection_SplitterInTableHasNoText(t *testing.T) {
	doc := parseDoc(t, `<table><tbody><tr><td>1</td></tr><tr><td>2</td></tr><tr><td>3</td></tr></tbody></table>`, pageURL)
	tbody := dom.Elements(doc.Root, "tbody")[0]
	doc.Selection = &dom.Selection{Ranges: []dom.Range{
		{StartContainer: tbody, StartOffset: 0, EndContainer: tbody, EndOffset: 1},
		{StartContainer: tbody, StartOffset: 2, EndContainer: tbody, EndOffset: 3},
	}}

	res := newHarness(t, nil, capture.Config{}).capture(t, doc, selectionOnly())

	assert.Contains(t, res.Content, "<!--DOCUMENT_FRAGMENT_SPLITTER--><!--/DOCUMENT_FRAGMENT_SPLITTER-->")
	assert.NotContains(t, res.Content, "…")
	assert.NotContains(t, res.Content, "<td>2</td>")
}

func TestSelection_IgnoredWithoutSelectionOnly(t *testing.T) {
	doc := parseDoc(t, `<p>keep</p><p>all</p>`, pageURL)
	p := dom.Elements(doc.Root, "p")[0]
	doc.Selection = &dom.Selection{Ranges: []dom.Range{dom.RangeSelectingContents(p)}}

	res := newHarness(t, nil, capture.Config{}).capture(t, doc, entity.DefaultOptions())

	assert.Contains(t, res.Content, "<p>all</p>")
	assert.NotContains(t, res.Content, capture.FragmentMarker)
}

func TestSelection_CollapsedFallsBackToFullDocument(t *testing.T) {
	doc := parseDoc(t, `<p>abc</p>`, pageURL)
	text := textOf(dom.Elements(doc.Root, "p")[0])
	doc.Selection = &dom.Selection{Ranges: []dom.Range{{StartContainer: text, StartOffset: 1, EndContainer: text, EndOffset: 1}}}

	res := newHarness(t, nil, capture.Config{}).capture(t, doc, selectionOnly())

	assert.Contains(t, res.Content, "<p>abc</p>")
	assert.NotContains(t, res.Content, capture.FragmentMarker)
}

func TestSelection_CanvasInsideSelectionIsRestored(t *testing.T) {
	doc := parseDoc(t, `<div><canvas></canvas></div><p>skip</p>`, pageURL)
	canvas := dom.Elements(doc.Root, "canvas")[0]
	doc.BindCanvas(canvas, "data:image/png;base64,AAAA")
	doc.Selection = &dom.Selection{Ranges: []dom.Range{dom.RangeSelectingNode(canvas)}}

	res := newHarness(t, nil, capture.Config{}).capture(t, doc, selectionOnly())

	out := parseOutput(t, res.Content)
	require.Len(t, dom.Elements(out, "script"), 1)
	assert.NotContains(t, res.Content, "skip")
}

func TestExtract_Layout(t *testing.T) {
	doc := parseDoc(t, `<html><head></head><body><p>x</p></body></html>`, pageURL)
	root := capture.Extract(doc, false, capture.NewReferenceTable())

	assert.Equal(t, "<html>\n<head>\n</head>\n<body><p>x</p></body>\n</html>", dom.OuterHTML(root))
}
