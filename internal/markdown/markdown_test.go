package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_FencedCodeWithLanguage(t *testing.T) {
	out, err := New().Render([]byte("```go\nfmt.Println(\"<hi>\")\n```\n"))
	require.NoError(t, err)
	require.Contains(t, out, `<pre class="language-go"><code class="language-go">`)
	require.Contains(t, out, `fmt.Println(&quot;&lt;hi&gt;&quot;)`)
	require.Contains(t, out, "</code></pre>")
}

func TestRender_FencedCodeWithoutLanguageDefaultsToNone(t *testing.T) {
	out, err := New().Render([]byte("```\nplain\n```\n"))
	require.NoError(t, err)
	require.Contains(t, out, `<pre class="language-none"><code class="language-none">plain`)
}

func TestRender_IndentedCodeDefaultsToNone(t *testing.T) {
	out, err := New().Render([]byte("para\n\n    indented\n"))
	require.NoError(t, err)
	require.Contains(t, out, `<code class="language-none">indented`)
}

func TestRender_GFMAndHeadings(t *testing.T) {
	out, err := New().Render([]byte("# Hello World\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n"))
	require.NoError(t, err)
	require.Contains(t, out, `<h1 id="hello-world">Hello World</h1>`)
	require.Contains(t, out, "<table>")
	require.Contains(t, out, "<del>gone</del>")
}

func TestRenderFunc_AdaptsFunction(t *testing.T) {
	var r Renderer = RenderFunc(func(b []byte) (string, error) { return "<p>" + string(b) + "</p>", nil })
	out, err := r.Render([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, "<p>x</p>", out)
}
