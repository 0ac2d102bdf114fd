package utils

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
)

const maxFilenameLength = 128

// SplitExt splits name into base and extension (with its dot).
func SplitExt(name string) (string, string) {
	ext := path.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// NumberedName returns the n-th candidate of a unique name: base+ext first,
// then base_1+ext, base_2+ext, ...
func NumberedName(base, ext string, n int) string {
	if n == 0 {
		return base + ext
	}
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// SanitizeFilename keeps letters, digits, dot, dash and underscore so the name
// is safe both on disk and inside a relative URL.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := strings.Trim(b.String(), ".")
	if len(s) > maxFilenameLength {
		base, ext := SplitExt(s)
		if len(ext) > 16 {
			base, ext = s, ""
		}
		s = base[:maxFilenameLength-len(ext)] + ext
	}
	return s
}

// FilenameFromURL derives a file name from the last path segment of u. When
// the segment is empty or has no extension, one is guessed from contentType.
func FilenameFromURL(u *url.URL, contentType string) string {
	name := ""
	if u != nil {
		name = path.Base(u.Path)
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	if name == "." || name == "/" {
		name = ""
	}
	name = SanitizeFilename(name)
	if name == "" {
		name = "file"
	}
	if _, ext := SplitExt(name); ext == "" {
		name += ExtensionByType(contentType)
	}
	return name
}

var preferredExtensions = map[string]string{
	"text/html":              ".html",
	"application/xhtml+xml":  ".xhtml",
	"text/css":               ".css",
	"text/javascript":        ".js",
	"application/javascript": ".js",
	"image/jpeg":             ".jpg",
	"image/png":              ".png",
	"image/gif":              ".gif",
	"image/svg+xml":          ".svg",
	"image/webp":             ".webp",
	"text/plain":             ".txt",
}

// ExtensionByType returns the usual extension of a MIME type, or "".
func ExtensionByType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if ext, ok := preferredExtensions[mt]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
