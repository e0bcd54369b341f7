// Package markdown renders post bodies to HTML and provides the analysis
// helpers (excerpts, link extraction) the rest of the build relies on.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Renderer converts markdown bodies (frontmatter already removed) to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds the goldmark instance used for all post rendering.
// Raw HTML passthrough is enabled; content is the author's own prose.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render converts a markdown body to HTML.
func (r *Renderer) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// Excerpt renders the leading portion of a body. An explicit separator
// (e.g. "<!--more-->") wins; otherwise the first paragraph is used.
func (r *Renderer) Excerpt(body []byte, separator string) ([]byte, error) {
	if separator != "" {
		if idx := bytes.Index(body, []byte(separator)); idx >= 0 {
			return r.Render(bytes.TrimRight(body[:idx], "\n"))
		}
	}

	para := firstParagraph(r.md, body)
	if para == nil {
		return nil, nil
	}
	return r.Render(para)
}

// firstParagraph returns the raw markdown of the first top-level paragraph.
func firstParagraph(md goldmark.Markdown, body []byte) []byte {
	root := md.Parser().Parse(text.NewReader(body))

	var raw []byte
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		para, ok := n.(*gmast.Paragraph)
		if !ok {
			return gmast.WalkContinue, nil
		}
		lines := para.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			raw = append(raw, body[seg.Start:seg.Stop]...)
		}
		return gmast.WalkStop, nil
	})
	return raw
}
