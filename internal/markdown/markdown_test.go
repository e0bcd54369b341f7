package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBasic(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render([]byte("# Hello\n\nSome *text*.\n"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, html, "<em>text</em>")
}

func TestRenderGFMTable(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<table>")
}

func TestRenderRawHTMLPassthrough(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render([]byte("before\n\n<div class=\"note\">hi</div>\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `<div class="note">hi</div>`)
}

func TestExcerptSeparatorWins(t *testing.T) {
	r := NewRenderer()
	body := []byte("First paragraph.\n\nSecond paragraph.\n\n<!--more-->\n\nRest of the post.\n")

	out, err := r.Excerpt(body, "<!--more-->")
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "First paragraph.")
	assert.Contains(t, html, "Second paragraph.")
	assert.NotContains(t, html, "Rest of the post.")
}

func TestExcerptFallsBackToFirstParagraph(t *testing.T) {
	r := NewRenderer()
	body := []byte("# Heading\n\nOpening words of the post.\n\nMore detail follows.\n")

	out, err := r.Excerpt(body, "<!--more-->")
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Opening words of the post.")
	assert.NotContains(t, html, "More detail follows.")
	assert.NotContains(t, html, "Heading")
}

func TestExcerptEmptyBody(t *testing.T) {
	r := NewRenderer()

	out, err := r.Excerpt([]byte(""), "<!--more-->")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExtractLinks(t *testing.T) {
	r := NewRenderer()
	body := []byte("A [link](/2013/07/post/) and ![img](/images/x.png) and <https://example.com>.\n")

	links := r.ExtractLinks(body)
	require.Len(t, links, 3)

	dests := map[LinkKind]string{}
	for _, l := range links {
		dests[l.Kind] = l.Destination
	}
	assert.Equal(t, "/2013/07/post/", dests[LinkKindInline])
	assert.Equal(t, "/images/x.png", dests[LinkKindImage])
	assert.Equal(t, "https://example.com", dests[LinkKindAuto])
}
