package routing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

func post(title, body string, day int) *content.Post {
	return &content.Post{
		Title:   title,
		RawBody: []byte(body),
		Date:    time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

var (
	seqCfg = config.RoutingConfig{Type: config.RoutingSequential, BasePath: "/article"}
	md5Cfg = config.RoutingConfig{Type: config.RoutingMD5, BasePath: "/article"}
)

func TestAssign_SequentialUsesRank(t *testing.T) {
	posts := []*content.Post{post("c", "3", 3), post("b", "2", 2), post("a", "1", 1)}

	require.NoError(t, Assign(posts, seqCfg))
	require.Equal(t, "1.html", posts[0].FileName)
	require.Equal(t, "2.html", posts[1].FileName)
	require.Equal(t, "3.html", posts[2].FileName)
	require.Equal(t, "/article/1.html", posts[0].URL)
	require.Empty(t, posts[0].ID)
}

func TestAssign_SequentialRenumbersOnInsert(t *testing.T) {
	posts := []*content.Post{post("b", "2", 2), post("a", "1", 1)}
	require.NoError(t, Assign(posts, seqCfg))
	before := map[string]string{}
	for _, p := range posts {
		before[p.Title] = p.FileName
	}

	posts = append([]*content.Post{post("new", "n", 9)}, posts...)
	require.NoError(t, Assign(posts, seqCfg))
	for _, p := range posts[1:] {
		require.NotEqual(t, before[p.Title], p.FileName, "post %s should be renumbered", p.Title)
	}
}

func TestAssign_MD5DependsOnlyOnBody(t *testing.T) {
	a := post("a", "same body", 1)
	b := post("b", "other body", 2)
	require.NoError(t, Assign([]*content.Post{a, b}, md5Cfg))
	idA, idB := a.ID, b.ID

	// reorder, retitle and redate: names are unchanged
	a2 := post("renamed", "same body", 20)
	b2 := post("b", "other body", 2)
	require.NoError(t, Assign([]*content.Post{a2, b2}, md5Cfg))

	require.Equal(t, idA, a2.ID)
	require.Equal(t, idB, b2.ID)
	require.Equal(t, idA+".html", a2.FileName)
	require.Equal(t, "/article/"+idA+".html", a2.URL)
	require.Len(t, idA, IDLength)
}

func TestContentID_KnownValue(t *testing.T) {
	// md5("hello") = 5d41402abc4b2a76b9719d911017c592
	require.Equal(t, "5d414", ContentID([]byte("hello")))
}

func TestContentID_NoCollisionsInCorpus(t *testing.T) {
	seen := make(map[string]string, 1000)
	for i := 0; i < 1000; i++ {
		body := fmt.Sprintf("# Post %d\n\nBody number %d.\n", i, i)
		id := ContentID([]byte(body))
		prev, dup := seen[id]
		require.False(t, dup, "collision between %q and %q", prev, body)
		seen[id] = body
	}
}

func TestAssign_UnknownTypeFails(t *testing.T) {
	err := Assign([]*content.Post{post("a", "1", 1)}, config.RoutingConfig{Type: "nope"})
	require.Error(t, err)
}

func TestJoinURL(t *testing.T) {
	require.Equal(t, "/article/1.html", JoinURL("/article/", "1.html"))
	require.Equal(t, "/1.html", JoinURL("/", "1.html"))
	require.Equal(t, "/1.html", JoinURL("", "/1.html"))
}
