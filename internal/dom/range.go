package dom

import "golang.org/x/net/html"

// Cloner copies a node. CloneContents uses it for every node it copies so
// callers can track clones.
type Cloner func(n *html.Node, deep bool) *html.Node

// DefaultCloner clones without tracking.
func DefaultCloner(n *html.Node, deep bool) *html.Node {
	return Clone(n, deep, nil)
}

// Range is a pair of boundary points in one tree. Offsets count children for
// elements and bytes for character data.
type Range struct {
	StartContainer *html.Node
	StartOffset    int
	EndContainer   *html.Node
	EndOffset      int
}

// RangeSelectingNode returns the range spanning n within its parent.
func RangeSelectingNode(n *html.Node) Range {
	if n.Parent == nil {
		return RangeSelectingContents(n)
	}
	i := ChildIndex(n)
	return Range{StartContainer: n.Parent, StartOffset: i, EndContainer: n.Parent, EndOffset: i + 1}
}

// RangeSelectingContents returns the range spanning everything inside n.
func RangeSelectingContents(n *html.Node) Range {
	return Range{StartContainer: n, StartOffset: 0, EndContainer: n, EndOffset: Length(n)}
}

// Collapsed reports whether the range is empty.
func (r Range) Collapsed() bool {
	if r.StartContainer == nil || r.EndContainer == nil {
		return true
	}
	return comparePaths(boundaryPath(r.StartContainer, r.StartOffset), boundaryPath(r.EndContainer, r.EndOffset)) >= 0
}

// CommonAncestor returns the deepest node containing both boundary
// containers, or nil when they live in different trees.
func (r Range) CommonAncestor() *html.Node {
	seen := make(map[*html.Node]struct{})
	for n := r.StartContainer; n != nil; n = n.Parent {
		seen[n] = struct{}{}
	}
	for n := r.EndContainer; n != nil; n = n.Parent {
		if _, ok := seen[n]; ok {
			return n
		}
	}
	return nil
}

// CloneContents returns copies of the nodes covered by the range, top level
// first. Partially covered character data is cut at the boundary offsets,
// partially covered elements are copied shallowly and filled with their
// covered descendants.
func (r Range) CloneContents(clone Cloner) []*html.Node {
	if clone == nil {
		clone = DefaultCloner
	}
	if r.Collapsed() {
		return nil
	}
	if r.StartContainer == r.EndContainer && IsCharacterData(r.StartContainer) {
		c := clone(r.StartContainer, false)
		c.Data = substring(r.StartContainer.Data, r.StartOffset, r.EndOffset)
		return []*html.Node{c}
	}
	ancestor := r.CommonAncestor()
	if ancestor == nil {
		return nil
	}
	start := boundaryPath(r.StartContainer, r.StartOffset)
	end := boundaryPath(r.EndContainer, r.EndOffset)
	return r.cloneChildren(ancestor, start, end, clone)
}

func (r Range) cloneChildren(parent *html.Node, start, end []int, clone Cloner) []*html.Node {
	base := nodePath(parent)
	at := func(i int) []int {
		p := make([]int, len(base)+1)
		copy(p, base)
		p[len(base)] = i
		return p
	}

	var out []*html.Node
	i := 0
	for c := parent.FirstChild; c != nil; c, i = c.NextSibling, i+1 {
		switch {
		case comparePaths(start, at(i)) <= 0 && comparePaths(at(i+1), end) <= 0:
			out = append(out, clone(c, true))
		case Contains(c, r.StartContainer) || Contains(c, r.EndContainer):
			n := clone(c, false)
			if IsCharacterData(c) {
				from, to := 0, len(c.Data)
				if c == r.StartContainer {
					from = r.StartOffset
				}
				if c == r.EndContainer {
					to = r.EndOffset
				}
				n.Data = substring(c.Data, from, to)
			} else {
				for _, cc := range r.cloneChildren(c, start, end, clone) {
					n.AppendChild(cc)
				}
			}
			out = append(out, n)
		}
	}
	return out
}

func substring(s string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(s) {
		to = len(s)
	}
	if from >= to {
		return ""
	}
	return s[from:to]
}

// nodePath lists child indices from the tree root down to n.
func nodePath(n *html.Node) []int {
	var rev []int
	for ; n.Parent != nil; n = n.Parent {
		rev = append(rev, ChildIndex(n))
	}
	path := make([]int, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = v
	}
	return path
}

func boundaryPath(container *html.Node, offset int) []int {
	return append(nodePath(container), offset)
}

// comparePaths orders boundary paths in document order. A path sorts before
// every path it prefixes.
func comparePaths(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Selection is the ordered list of ranges selected in a document.
type Selection struct {
	Ranges []Range
}

// Active reports whether the selection covers anything.
func (s *Selection) Active() bool {
	if s == nil {
		return false
	}
	for _, r := range s.Ranges {
		if !r.Collapsed() {
			return true
		}
	}
	return false
}
