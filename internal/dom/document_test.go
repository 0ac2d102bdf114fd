package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack23912/webscrapbook/internal/dom"
)

func TestLiveDocument_Resolve(t *testing.T) {
	doc, err := dom.ParseString(`<img src="a.png">`, "http://example.com/dir/page.html")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/dir/a.png", doc.Resolve("a.png"))
	assert.Equal(t, "http://example.com/b.png", doc.Resolve(" /b.png "))
	assert.Equal(t, "", doc.Resolve(""))

	based, err := dom.ParseString(`<head><base href="/assets/"></head>`, "http://example.com/dir/page.html")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/assets/a.png", based.Resolve("a.png"))
}

func TestLiveDocument_MediaType(t *testing.T) {
	doc, err := dom.ParseString(`<p>x</p>`, "http://example.com/")
	require.NoError(t, err)
	assert.True(t, doc.IsMarkup())

	doc.ContentType = "application/xhtml+xml; charset=utf-8"
	assert.True(t, doc.IsMarkup())

	doc.ContentType = "image/png"
	assert.False(t, doc.IsMarkup())
}

func TestDoctypeString(t *testing.T) {
	doc, err := dom.ParseString(`<!DOCTYPE html><p>x</p>`, "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html>\n", dom.DoctypeString(doc.Doctype()))

	legacy, err := dom.ParseString(`<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd"><p>x</p>`, "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html PUBLIC \"-//W3C//DTD HTML 4.01//EN\" \"http://www.w3.org/TR/html4/strict.dtd\">\n", dom.DoctypeString(legacy.Doctype()))

	assert.Equal(t, "", dom.DoctypeString(nil))
}
