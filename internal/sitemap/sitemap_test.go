package sitemap

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

func parse(t *testing.T, data []byte) urlSet {
	t.Helper()
	var set urlSet
	require.NoError(t, xml.Unmarshal(data, &set))
	return set
}

func TestGenerate_ListsPagesInOrder(t *testing.T) {
	posts := []*content.Post{
		{URL: "/article/1.html", Date: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{URL: "/article/2.html", Date: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
	}
	data, err := Generate(Input{
		BaseURL:   "https://example.com/",
		Posts:     posts,
		Generated: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), xml.Header))

	set := parse(t, data)
	require.Contains(t, string(data), `xmlns="`+Namespace+`"`)
	require.Len(t, set.URLs, 4)

	require.Equal(t, "https://example.com/", set.URLs[0].Loc)
	require.Equal(t, "1.0", set.URLs[0].Priority)
	require.Equal(t, "https://example.com/post.html", set.URLs[1].Loc)
	require.Equal(t, "2024-06-01", set.URLs[1].LastMod)
	require.Equal(t, "https://example.com/article/1.html", set.URLs[2].Loc)
	require.Equal(t, "2024-03-01", set.URLs[2].LastMod)
	require.Equal(t, "monthly", set.URLs[2].ChangeFreq)
	require.Equal(t, "https://example.com/article/2.html", set.URLs[3].Loc)
}

func TestGenerate_GistsOnlyWhenRendered(t *testing.T) {
	without, err := Generate(Input{BaseURL: "https://example.com"})
	require.NoError(t, err)
	require.NotContains(t, string(without), "gists.html")

	with, err := Generate(Input{BaseURL: "https://example.com", WithGists: true})
	require.NoError(t, err)
	set := parse(t, with)
	require.Len(t, set.URLs, 3)
	require.Equal(t, "https://example.com/gists.html", set.URLs[2].Loc)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, Input{BaseURL: "https://example.com"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, FileName), path)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestWrite_MissingDirFails(t *testing.T) {
	_, err := Write(filepath.Join(t.TempDir(), "nope"), Input{BaseURL: "https://example.com"})
	require.Error(t, err)
}
