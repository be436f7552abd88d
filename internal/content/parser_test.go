package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func stubMarkdown() markdown.Renderer {
	return markdown.RenderFunc(func(b []byte) (string, error) { return "<p>" + string(b) + "</p>", nil })
}

func newTestParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return NewParser(stubMarkdown(), WithLogger(logger), WithClock(func() time.Time { return fixedNow }), WithConcurrency(4))
}

func writePost(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestParsePost_FullFrontMatter(t *testing.T) {
	dir := t.TempDir()
	path := writePost(t, dir, "hello.md", "---\ntitle: Hello\ncategories: Go\ndate: 2024-03-01\ntags: a, b, a\ncover: /img/c.png\n---\nBody here\n")

	post, err := newTestParser(nil).ParsePost(path)
	require.NoError(t, err)
	require.Equal(t, "Hello", post.Title)
	require.Equal(t, "Go", post.Categories)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), post.Date.UTC())
	require.Equal(t, []string{"a", "b"}, post.Tags)
	require.Equal(t, "/img/c.png", post.Cover)
	require.Equal(t, "<p>Body here\n</p>", post.Content)
	require.Equal(t, "Body here\n"+Ellipsis, post.Excerpt)
	require.Equal(t, []byte("Body here\n"), post.RawBody)
	require.NotEmpty(t, post.Fingerprint)
	require.Empty(t, post.FileName)
}

func TestParsePost_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writePost(t, dir, "my-first-post.md", "Just a body\n")

	post, err := newTestParser(nil).ParsePost(path)
	require.NoError(t, err)
	require.Equal(t, "my-first-post", post.Title)
	require.Equal(t, Uncategorized, post.Categories)
	require.Equal(t, fixedNow, post.Date)
	require.Equal(t, []string{}, post.Tags)
	require.Empty(t, post.Cover)
}

func TestParsePost_MalformedFrontMatterIsContentError(t *testing.T) {
	dir := t.TempDir()
	path := writePost(t, dir, "bad.md", "---\ntitle: [oops\n---\nbody\n")

	_, err := newTestParser(nil).ParsePost(path)
	require.Error(t, err)
	require.True(t, derrors.HasCategory(err, derrors.CategoryContent))
	c, _ := derrors.AsClassified(err)
	p, _ := c.Context().GetString("path")
	require.Equal(t, path, p)
}

func TestParsePost_InvalidDateIsContentError(t *testing.T) {
	dir := t.TempDir()
	path := writePost(t, dir, "bad-date.md", "---\ndate: not a date\n---\nbody\n")

	_, err := newTestParser(nil).ParsePost(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid date")
}

func TestParsePost_MarkdownFailureIsContentError(t *testing.T) {
	dir := t.TempDir()
	path := writePost(t, dir, "a.md", "body")
	failing := markdown.RenderFunc(func([]byte) (string, error) { return "", fmt.Errorf("engine down") })

	_, err := NewParser(failing).ParsePost(path)
	require.ErrorContains(t, err, "engine down")
}

func TestLoadPosts_SortsByDateDescending(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "a.md", "---\ntitle: Jan\ndate: 2024-01-01\n---\nA\n")
	writePost(t, dir, "b.md", "---\ntitle: Mar\ndate: 2024-03-01\n---\nB\n")
	writePost(t, dir, "c.md", "---\ntitle: Feb\ndate: 2024-02-01\n---\nC\n")

	res, err := newTestParser(nil).LoadPosts(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 3, res.Discovered)
	require.Equal(t, []string{"Mar", "Feb", "Jan"}, titles(res.Posts))
}

func TestLoadPosts_EqualDatesKeepDiscoveryOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		writePost(t, dir, name+".md", "---\ntitle: "+name+"\ndate: 2024-05-05\n---\n"+name+"\n")
	}
	writePost(t, dir, "z.md", "---\ntitle: newest\ndate: 2024-06-06\n---\nz\n")

	res, err := newTestParser(nil).LoadPosts(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, []string{"newest", "a", "b", "c", "d", "e", "f"}, titles(res.Posts))
}

func TestLoadPosts_SkipsMalformedAndWarns(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "good1.md", "---\ntitle: one\ndate: 2024-01-01\n---\n1\n")
	writePost(t, dir, "broken.md", "---\ntitle: \"unterminated\n---\nx\n")
	writePost(t, dir, "good2.md", "---\ntitle: two\ndate: 2024-01-02\n---\n2\n")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	res, err := newTestParser(logger).LoadPosts(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)
	require.Len(t, res.Failed, 1)
	require.Equal(t, 3, res.Discovered)
	require.Contains(t, logs.String(), "level=WARN")
	require.Contains(t, logs.String(), "broken.md")
}

func TestLoadPosts_RecursiveAndIgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "2024/jan/post.md", "deep\n")
	writePost(t, dir, "notes.txt", "nope")
	writePost(t, dir, ".hidden/secret.md", "hidden")
	writePost(t, dir, "other.markdown", "md too\n")

	res, err := newTestParser(nil).LoadPosts(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, res.Discovered)
}

func TestLoadPosts_MissingDirIsError(t *testing.T) {
	_, err := newTestParser(nil).LoadPosts(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func titles(posts []*Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}
