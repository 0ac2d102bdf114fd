package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashURL returns a hex SHA256 of rawURL without its fragment, for use as a
// Redis key component. URLs differing only in the fragment hash equally.
func HashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(StripFragment(rawURL)))
	return hex.EncodeToString(sum[:])
}

// StripFragment drops everything from the first '#'.
func StripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// ToAbsoluteURL resolves ref against base. Surrounding whitespace, which
// HTML allows in URL attributes, is ignored.
func ToAbsoluteURL(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	if base == nil {
		return u.String(), nil
	}
	return base.ResolveReference(u).String(), nil
}

// IsInlineScheme reports whether rawURL carries its content itself or names
// nothing fetchable (data:, about:, blob:, javascript:).
func IsInlineScheme(rawURL string) bool {
	scheme, _, ok := strings.Cut(rawURL, ":")
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "data", "about", "blob", "javascript":
		return true
	}
	return false
}
