package dom

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/jack23912/webscrapbook/pkg/utils"
)

// Document ready states.
const (
	ReadyStateLoading     = "loading"
	ReadyStateInteractive = "interactive"
	ReadyStateComplete    = "complete"
)

// Document content types the engine captures as markup.
const (
	ContentTypeHTML  = "text/html"
	ContentTypeXHTML = "application/xhtml+xml"
)

// LiveDocument is a loaded document as a loader observed it: the parsed tree
// plus the state a renderer holds beside it (selection, frame documents,
// canvas pixels). Captures read it and never mutate it.
type LiveDocument struct {
	URL         string
	ContentType string
	ReadyState  string
	// Root is the html.DocumentNode. It is nil for non-markup content.
	Root      *html.Node
	Selection *Selection
	// Frames maps a frame or iframe element of Root to its content document
	// when the loader could inspect it.
	Frames map[*html.Node]*LiveDocument
	// Canvases maps a canvas element of Root to its pixels as a data: URL.
	Canvases map[*html.Node]string
}

// Parse reads markup into a complete LiveDocument.
func Parse(r io.Reader, docURL, contentType string) (*LiveDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", docURL, err)
	}
	return &LiveDocument{
		URL:         docURL,
		ContentType: contentType,
		ReadyState:  ReadyStateComplete,
		Root:        root,
	}, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(markup, docURL string) (*LiveDocument, error) {
	return Parse(strings.NewReader(markup), docURL, ContentTypeHTML)
}

// MediaType returns the content type without parameters, lower-cased.
func (d *LiveDocument) MediaType() string {
	if d.ContentType == "" {
		if d.Root != nil {
			return ContentTypeHTML
		}
		return ""
	}
	mt, _, err := mime.ParseMediaType(d.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(d.ContentType, ";", 2)[0]))
	}
	return mt
}

// IsMarkup reports whether the document is HTML or XHTML.
func (d *LiveDocument) IsMarkup() bool {
	mt := d.MediaType()
	return (mt == ContentTypeHTML || mt == ContentTypeXHTML) && d.Root != nil
}

// IsMarkupType reports whether a Content-Type header names HTML or XHTML.
// An empty header counts as HTML.
func IsMarkupType(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mt == ContentTypeHTML || mt == ContentTypeXHTML
}

// DocumentElement returns the <html> element.
func (d *LiveDocument) DocumentElement() *html.Node {
	if d.Root == nil {
		return nil
	}
	if d.Root.Type != html.DocumentNode {
		return d.Root
	}
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// Doctype returns the doctype node, if any.
func (d *LiveDocument) Doctype() *html.Node {
	if d.Root == nil {
		return nil
	}
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			return c
		}
	}
	return nil
}

// BaseURL is the URL relative references resolve against: the first
// base[href] when it parses, the document URL otherwise.
func (d *LiveDocument) BaseURL() *url.URL {
	docURL, err := url.Parse(d.URL)
	if err != nil {
		docURL = &url.URL{}
	}
	for _, b := range Elements(d.Root, "base") {
		href, ok := Attr(b, "href")
		if !ok {
			continue
		}
		if abs, err := utils.ToAbsoluteURL(docURL, strings.TrimSpace(href)); err == nil {
			if u, err := url.Parse(abs); err == nil {
				return u
			}
		}
		break
	}
	return docURL
}

// Resolve turns ref into an absolute URL against the document base. Empty or
// unparsable references are returned unchanged.
func (d *LiveDocument) Resolve(ref string) string {
	return ResolveAgainst(d.BaseURL(), ref)
}

// ResolveAgainst resolves ref against base the way Resolve does.
func ResolveAgainst(base *url.URL, ref string) string {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return ref
	}
	abs, err := utils.ToAbsoluteURL(base, trimmed)
	if err != nil {
		return ref
	}
	return abs
}

// FrameDocument returns the content document of a frame element when the
// loader could inspect it.
func (d *LiveDocument) FrameDocument(frame *html.Node) (*LiveDocument, bool) {
	child, ok := d.Frames[frame]
	return child, ok && child != nil
}

// CanvasData returns the pixels of a canvas element as a data: URL.
func (d *LiveDocument) CanvasData(canvas *html.Node) (string, bool) {
	data, ok := d.Canvases[canvas]
	return data, ok && data != ""
}

// BindFrame records child as the content document of frame.
func (d *LiveDocument) BindFrame(frame *html.Node, child *LiveDocument) {
	if d.Frames == nil {
		d.Frames = make(map[*html.Node]*LiveDocument)
	}
	d.Frames[frame] = child
}

// BindCanvas records the pixels of canvas.
func (d *LiveDocument) BindCanvas(canvas *html.Node, dataURL string) {
	if d.Canvases == nil {
		d.Canvases = make(map[*html.Node]string)
	}
	d.Canvases[canvas] = dataURL
}

// DoctypeString serializes a doctype node followed by a newline, or returns
// "" for nil.
func DoctypeString(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE ")
	b.WriteString(n.Data)
	var public, system string
	for _, a := range n.Attr {
		switch a.Key {
		case "public":
			public = a.Val
		case "system":
			system = a.Val
		}
	}
	switch {
	case public != "":
		b.WriteString(` PUBLIC "` + public + `"`)
		if system != "" {
			b.WriteString(` "` + system + `"`)
		}
	case system != "":
		b.WriteString(` SYSTEM "` + system + `"`)
	}
	b.WriteString(">\n")
	return b.String()
}
