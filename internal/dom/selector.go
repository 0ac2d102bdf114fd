package dom

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// SelectionFromSelectors builds a selection with one range per element
// matched by the CSS selectors, in selector order then document order.
func SelectionFromSelectors(d *LiveDocument, selectors []string) (*Selection, error) {
	sel := &Selection{}
	if d.Root == nil {
		return sel, nil
	}
	doc := goquery.NewDocumentFromNode(d.Root)
	for _, s := range selectors {
		if _, err := cascadia.ParseGroup(s); err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", s, err)
		}
		for _, n := range doc.Find(s).Nodes {
			sel.Ranges = append(sel.Ranges, RangeSelectingNode(n))
		}
	}
	return sel, nil
}
