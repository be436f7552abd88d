package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// DefaultLanguage is used for code blocks without an info string.
const DefaultLanguage = "none"

type codeBlockRenderer struct{}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFenced)
	reg.Register(ast.KindCodeBlock, r.renderIndented)
}

func (r *codeBlockRenderer) renderFenced(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := DefaultLanguage
	if l := n.Language(source); len(l) > 0 {
		lang = string(l)
	}
	writeBlock(w, source, n, lang)
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) renderIndented(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	writeBlock(w, source, node, DefaultLanguage)
	return ast.WalkSkipChildren, nil
}

func writeBlock(w util.BufWriter, source []byte, node ast.Node, lang string) {
	class := util.EscapeHTML([]byte("language-" + lang))
	_, _ = w.WriteString(`<pre class="`)
	_, _ = w.Write(class)
	_, _ = w.WriteString(`"><code class="`)
	_, _ = w.Write(class)
	_, _ = w.WriteString(`">`)
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}
	_, _ = w.WriteString("</code></pre>\n")
}
