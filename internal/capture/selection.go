package capture

import (
	"golang.org/x/net/html"

	"github.com/jack23912/webscrapbook/internal/dom"
)

// Markers delimiting selected content in a selection-only capture.
const (
	FragmentMarker      = "DOCUMENT_FRAGMENT"
	FragmentEndMarker   = "/DOCUMENT_FRAGMENT"
	SplitterMarker      = "DOCUMENT_FRAGMENT_SPLITTER"
	SplitterEndMarker   = "/DOCUMENT_FRAGMENT_SPLITTER"
	splitterVisibleText = " … "
)

// Containers in which stray text would be moved elsewhere when the artifact
// is parsed again.
var tableStructure = map[string]bool{
	"table": true, "thead": true, "tbody": true, "tfoot": true,
	"tr": true, "colgroup": true, "select": true,
}

// SelectionNode is one branch of the ancestor skeleton built for a
// selection-only capture.
type SelectionNode struct {
	Original *html.Node
	Clone    *html.Node
	Children []*SelectionNode
}

func findBranch(branches []*SelectionNode, original *html.Node) *SelectionNode {
	for _, b := range branches {
		if b.Original == original {
			return b
		}
	}
	return nil
}

// Extract builds the snapshot root of doc: a deep copy of the document
// element, or, when selectionOnly is set and the selection covers something,
// the selected ranges inside a skeleton of their ancestors. Every copy goes
// through refs.
func Extract(doc *dom.LiveDocument, selectionOnly bool, refs *ReferenceTable) *html.Node {
	htmlEl := doc.DocumentElement()
	if htmlEl == nil {
		root := dom.NewElement("html")
		root.AppendChild(dom.NewElement("head"))
		root.AppendChild(dom.NewElement("body"))
		layout(root)
		return root
	}

	var root *html.Node
	if selectionOnly && doc.Selection.Active() {
		root = extractSelection(doc.Selection, htmlEl, refs)
	}
	if root == nil {
		root = refs.Clone(htmlEl, true)
	}
	layout(root)
	return root
}

// extractSelection returns nil when a range spans the whole document, in
// which case the full document is captured instead.
func extractSelection(sel *dom.Selection, htmlEl *html.Node, refs *ReferenceTable) *html.Node {
	var (
		root *html.Node
		tree []*SelectionNode
	)
	for _, rng := range sel.Ranges {
		if rng.Collapsed() {
			continue
		}
		container := rng.CommonAncestor()
		if dom.IsCharacterData(container) {
			container = container.Parent
		}
		chain, ok := ancestorChain(container, htmlEl)
		if !ok || len(chain) == 0 {
			return nil
		}

		if root == nil {
			root = refs.Clone(htmlEl, false)
			if head := dom.FirstChildElement(htmlEl, "head"); head != nil {
				root.AppendChild(refs.Clone(head, true))
			} else {
				root.AppendChild(dom.NewElement("head"))
			}
			root.AppendChild(dom.NewText("\n"))
		}

		parent, branches := root, &tree
		matched := 0
		for _, orig := range chain {
			node := findBranch(*branches, orig)
			if node != nil {
				matched++
			} else {
				node = &SelectionNode{Original: orig, Clone: refs.Clone(orig, false)}
				*branches = append(*branches, node)
				parent.AppendChild(node.Clone)
			}
			parent, branches = node.Clone, &node.Children
		}

		if matched == len(chain) {
			insertSplitter(parent)
		}
		parent.AppendChild(dom.NewComment(FragmentMarker))
		for _, n := range rng.CloneContents(refs.Clone) {
			parent.AppendChild(n)
		}
		parent.AppendChild(dom.NewComment(FragmentEndMarker))
	}
	return root
}

// ancestorChain lists the ancestors of n from just below htmlEl down to n.
// ok is false when n is not strictly inside htmlEl.
func ancestorChain(n, htmlEl *html.Node) ([]*html.Node, bool) {
	var rev []*html.Node
	for ; n != nil; n = n.Parent {
		if n == htmlEl {
			chain := make([]*html.Node, len(rev))
			for i, v := range rev {
				chain[len(rev)-1-i] = v
			}
			return chain, true
		}
		rev = append(rev, n)
	}
	return nil, false
}

func insertSplitter(parent *html.Node) {
	parent.AppendChild(dom.NewComment(SplitterMarker))
	if !tableStructure[parent.Data] {
		parent.AppendChild(dom.NewText(splitterVisibleText))
	}
	parent.AppendChild(dom.NewComment(SplitterEndMarker))
}

// layout makes sure head and body are separated by line breaks in the
// serialized artifact.
func layout(root *html.Node) {
	head := dom.FirstChildElement(root, "head")
	if head == nil {
		head = dom.NewElement("head")
		root.InsertBefore(head, root.FirstChild)
	}
	if !isText(head.PrevSibling) {
		root.InsertBefore(dom.NewText("\n"), head)
	}
	if !isText(head.FirstChild) {
		head.InsertBefore(dom.NewText("\n"), head.FirstChild)
	}
	if !isText(head.LastChild) {
		head.AppendChild(dom.NewText("\n"))
	}
	if !isText(head.NextSibling) {
		dom.InsertAfter(head, dom.NewText("\n"))
	}
	if body := dom.FirstChildElement(root, "body"); body != nil && body.NextSibling == nil {
		root.AppendChild(dom.NewText("\n"))
	}
}

func isText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}
