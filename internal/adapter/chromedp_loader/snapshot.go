package chromedp_loader

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jack23912/webscrapbook/internal/dom"
)

//go:embed snapshot.js
var snapshotScript string

// snapshotExpression returns the script serializing the rendered document,
// descending into same-origin frames up to maxFrameDepth levels.
func snapshotExpression(maxFrameDepth int) string {
	return fmt.Sprintf(snapshotScript, maxFrameDepth)
}

// DOM node types used by the snapshot.
const (
	nodeElement = 1
	nodeText    = 3
	nodeComment = 8
)

type doctypeSnapshot struct {
	Name     string `json:"name"`
	PublicID string `json:"publicId"`
	SystemID string `json:"systemId"`
}

type nodeSnapshot struct {
	Type     int               `json:"type"`
	Tag      string            `json:"tag,omitempty"`
	NS       string            `json:"ns,omitempty"`
	Attrs    [][2]string       `json:"attrs,omitempty"`
	Data     string            `json:"data,omitempty"`
	Canvas   string            `json:"canvas,omitempty"`
	Frame    *documentSnapshot `json:"frame,omitempty"`
	Children []*nodeSnapshot   `json:"children,omitempty"`
}

type documentSnapshot struct {
	URL         string           `json:"url"`
	ContentType string           `json:"contentType"`
	ReadyState  string           `json:"readyState"`
	Doctype     *doctypeSnapshot `json:"doctype"`
	Root        *nodeSnapshot    `json:"root"`
}

var namespaces = map[string]string{
	"http://www.w3.org/2000/svg":         "svg",
	"http://www.w3.org/1998/Math/MathML": "math",
}

// toLiveDocument rebuilds the snapshot as a node tree, binding frame
// documents and canvas pixels to the elements they belong to.
func toLiveDocument(s *documentSnapshot) *dom.LiveDocument {
	doc := &dom.LiveDocument{
		URL:         s.URL,
		ContentType: s.ContentType,
		ReadyState:  s.ReadyState,
	}
	if doc.ReadyState == "" {
		doc.ReadyState = dom.ReadyStateComplete
	}
	if s.Root == nil {
		return doc
	}

	root := &html.Node{Type: html.DocumentNode}
	if s.Doctype != nil {
		dt := &html.Node{Type: html.DoctypeNode, Data: strings.ToLower(s.Doctype.Name)}
		if s.Doctype.PublicID != "" {
			dt.Attr = append(dt.Attr, html.Attribute{Key: "public", Val: s.Doctype.PublicID})
		}
		if s.Doctype.SystemID != "" {
			dt.Attr = append(dt.Attr, html.Attribute{Key: "system", Val: s.Doctype.SystemID})
		}
		root.AppendChild(dt)
	}
	if el := buildNode(doc, s.Root); el != nil {
		root.AppendChild(el)
	}
	doc.Root = root
	return doc
}

func buildNode(doc *dom.LiveDocument, s *nodeSnapshot) *html.Node {
	switch s.Type {
	case nodeText:
		return dom.NewText(s.Data)
	case nodeComment:
		return dom.NewComment(s.Data)
	case nodeElement:
	default:
		return nil
	}

	tag := strings.ToLower(s.Tag)
	n := &html.Node{
		Type:      html.ElementNode,
		Data:      tag,
		DataAtom:  atom.Lookup([]byte(tag)),
		Namespace: namespaces[s.NS],
	}
	if n.Namespace != "" {
		n.Data, n.DataAtom = s.Tag, 0
	}
	for _, kv := range s.Attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[0], Val: kv[1]})
	}
	for _, c := range s.Children {
		if child := buildNode(doc, c); child != nil {
			n.AppendChild(child)
		}
	}
	if s.Canvas != "" {
		doc.BindCanvas(n, s.Canvas)
	}
	if s.Frame != nil {
		doc.BindFrame(n, toLiveDocument(s.Frame))
	}
	return n
}
