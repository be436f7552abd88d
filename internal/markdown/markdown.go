// Package markdown converts post bodies to HTML with goldmark.
//
// Fenced and indented code blocks are emitted as
//
//	<pre class="language-go"><code class="language-go">...</code></pre>
//
// with "none" as the language when the fence carries no info string, so client-side
// highlighters can target every block.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Renderer turns a Markdown body into HTML.
type Renderer interface {
	Render(body []byte) (string, error)
}

// Goldmark is the default Renderer.
type Goldmark struct {
	md goldmark.Markdown
}

// New returns a goldmark renderer with GFM, auto heading IDs and raw HTML passthrough.
func New() *Goldmark {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{}, 100)),
		),
	)
	return &Goldmark{md: md}
}

// Render converts body to HTML.
func (g *Goldmark) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(body []byte) (string, error)

func (f RenderFunc) Render(body []byte) (string, error) { return f(body) }
