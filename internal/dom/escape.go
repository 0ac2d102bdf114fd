package dom

import "strings"

const zeroWidthSpace = '\u200b'

// EscapeComment makes s safe to place inside an HTML comment. A zero width
// space is inserted between every pair of hyphens (ignoring zero width spaces
// already between them), so the result never contains "--" and
// UnescapeComment restores s exactly.
func EscapeComment(s string) string {
	if !strings.Contains(s, "-") {
		return s
	}
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(rs); i++ {
		b.WriteRune(rs[i])
		if rs[i] != '-' {
			continue
		}
		j := i + 1
		for j < len(rs) && rs[j] == zeroWidthSpace {
			j++
		}
		if j < len(rs) && rs[j] == '-' {
			b.WriteRune(zeroWidthSpace)
		}
	}
	return b.String()
}

// UnescapeComment reverses EscapeComment.
func UnescapeComment(s string) string {
	if !strings.ContainsRune(s, zeroWidthSpace) {
		return s
	}
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(rs); i++ {
		b.WriteRune(rs[i])
		if rs[i] != '-' || i+1 >= len(rs) || rs[i+1] != zeroWidthSpace {
			continue
		}
		j := i + 1
		for j < len(rs) && rs[j] == zeroWidthSpace {
			j++
		}
		if j < len(rs) && rs[j] == '-' {
			i++
		}
	}
	return b.String()
}
