package dom

import "strings"

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\f' || c == '\r'
}

// RewriteSrcset calls fn for every candidate URL of a srcset value and
// returns the value with each URL replaced by fn's result. Separators and
// descriptors are kept byte for byte.
func RewriteSrcset(srcset string, fn func(u string) string) string {
	var b strings.Builder
	i := 0
	for i < len(srcset) {
		j := i
		for j < len(srcset) && (isSpace(srcset[j]) || srcset[j] == ',') {
			j++
		}
		b.WriteString(srcset[i:j])
		i = j
		if i >= len(srcset) {
			break
		}

		for j < len(srcset) && !isSpace(srcset[j]) {
			j++
		}
		u := srcset[i:j]
		k := len(u)
		for k > 0 && u[k-1] == ',' {
			k--
		}
		u, trail := u[:k], u[k:]
		b.WriteString(fn(u))
		b.WriteString(trail)
		i = j
		if trail != "" {
			continue
		}

		depth := 0
		for j < len(srcset) {
			c := srcset[j]
			if c == '(' {
				depth++
			} else if c == ')' && depth > 0 {
				depth--
			} else if c == ',' && depth == 0 {
				break
			}
			j++
		}
		b.WriteString(srcset[i:j])
		i = j
	}
	return b.String()
}

// SrcsetURLs lists the candidate URLs of a srcset value in order.
func SrcsetURLs(srcset string) []string {
	var urls []string
	RewriteSrcset(srcset, func(u string) string {
		urls = append(urls, u)
		return u
	})
	return urls
}

// ReplaceSrcsetURLs substitutes the candidate URLs of srcset, in order, with
// repl. Candidates beyond len(repl) are kept.
func ReplaceSrcsetURLs(srcset string, repl []string) string {
	i := 0
	return RewriteSrcset(srcset, func(u string) string {
		if i >= len(repl) {
			return u
		}
		r := repl[i]
		i++
		return r
	})
}
