package capture

import (
	"golang.org/x/net/html"

	"github.com/jack23912/webscrapbook/internal/dom"
)

// ReferenceTable links snapshot clones back to the live elements they were
// copied from, for the elements whose capture needs live state (frames,
// canvases). Handles are local to one invocation.
type ReferenceTable struct {
	next    int
	live    map[int]*html.Node
	handles map[*html.Node]int
	clones  map[*html.Node]int
}

// NewReferenceTable returns an empty table.
func NewReferenceTable() *ReferenceTable {
	return &ReferenceTable{
		live:    make(map[int]*html.Node),
		handles: make(map[*html.Node]int),
		clones:  make(map[*html.Node]int),
	}
}

// Tag assigns a handle to every element under root named by tags, in
// document order, and returns how many were tagged.
func (t *ReferenceTable) Tag(root *html.Node, tags ...string) int {
	n := 0
	for _, el := range dom.Elements(root, tags...) {
		if _, ok := t.handles[el]; ok {
			continue
		}
		t.live[t.next] = el
		t.handles[el] = t.next
		t.next++
		n++
	}
	return n
}

// Clone copies n like dom.Clone and records the handle of every tagged node
// it copies. It satisfies dom.Cloner.
func (t *ReferenceTable) Clone(n *html.Node, deep bool) *html.Node {
	return dom.Clone(n, deep, func(orig, clone *html.Node) {
		if h, ok := t.handles[orig]; ok {
			t.clones[clone] = h
		}
	})
}

// Resolve returns the live element a clone was copied from.
func (t *ReferenceTable) Resolve(clone *html.Node) (*html.Node, bool) {
	h, ok := t.clones[clone]
	if !ok {
		return nil, false
	}
	el, ok := t.live[h]
	return el, ok
}

// Release drops the entries of live elements named by tags.
func (t *ReferenceTable) Release(tags ...string) {
	for h, el := range t.live {
		if !dom.IsElement(el, tags...) {
			continue
		}
		delete(t.live, h)
		delete(t.handles, el)
	}
	for c, h := range t.clones {
		if _, ok := t.live[h]; !ok {
			delete(t.clones, c)
		}
	}
}

// Len returns the number of live entries.
func (t *ReferenceTable) Len() int { return len(t.live) }
