package devserver

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func newTestRoot(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "public")
	writeFile(t, root, "index.html", "<h1>home</h1>")
	writeFile(t, root, "article/1.html", "<h1>one</h1>")
	writeFile(t, root, "docs/index.html", "docs index")
	writeFile(t, root, "empty/.keep", "")
	writeFile(t, root, "assets/site.css", "body{}")
	writeFile(t, root, "notes.unknownext", "plain")
	return root
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestFileHandler_RootServesIndex(t *testing.T) {
	h := NewFileHandler(newTestRoot(t), quietLogger())

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<h1>home</h1>", rec.Body.String())
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestFileHandler_DirectoryServesItsIndex(t *testing.T) {
	h := NewFileHandler(newTestRoot(t), quietLogger())

	rec := get(t, h, "/docs")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "docs index", rec.Body.String())

	rec = get(t, h, "/docs/")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFileHandler_MissingArticleIs404(t *testing.T) {
	h := NewFileHandler(newTestRoot(t), quietLogger())

	rec := get(t, h, "/article/missing.html")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not Found", rec.Body.String())

	// directory without index.html
	rec = get(t, h, "/empty")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// the handler keeps serving afterwards
	rec = get(t, h, "/article/1.html")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFileHandler_PathBelowFileIs404(t *testing.T) {
	var logs bytes.Buffer
	h := NewFileHandler(newTestRoot(t), slog.New(slog.NewTextHandler(&logs, nil)))

	for _, p := range []string{"/article/1.html/extra", "/assets/site.css/x/y"} {
		rec := get(t, h, p)
		require.Equal(t, http.StatusNotFound, rec.Code, p)
		require.Equal(t, "Not Found", rec.Body.String(), p)
	}
	require.NotContains(t, logs.String(), "level=ERROR")
}

func TestFileHandler_ContentTypes(t *testing.T) {
	h := NewFileHandler(newTestRoot(t), quietLogger())

	require.Contains(t, get(t, h, "/assets/site.css").Header().Get("Content-Type"), "text/css")
	require.Equal(t, DefaultContentType, get(t, h, "/notes.unknownext").Header().Get("Content-Type"))
}

func TestFileHandler_TraversalStaysInRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "public")
	writeFile(t, root, "index.html", "ok")
	writeFile(t, base, "secret.txt", "secret")

	h := NewFileHandler(root, quietLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../secret.txt"
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotContains(t, rec.Body.String(), "secret")
}

func TestFileHandler_FallsBackToBackupDuringSwap(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "public")
	writeFile(t, root+".prev", "index.html", "previous")

	rec := get(t, NewFileHandler(root, quietLogger()), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "previous", rec.Body.String())
}

func TestFileHandler_UnreadableIs500(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	root := newTestRoot(t)
	p := filepath.Join(root, "locked.html")
	writeFile(t, root, "locked.html", "x")
	require.NoError(t, os.Chmod(p, 0))
	t.Cleanup(func() { _ = os.Chmod(p, 0o600) })

	rec := get(t, NewFileHandler(root, quietLogger()), "/locked.html")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChain_RecoversPanics(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	h := Chain(logger, derrors.NewHTTPErrorAdapter(logger))(panicky)
	rec := get(t, h, "/x")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, logs.String(), "HTTP handler panic")
	require.Contains(t, logs.String(), "status=500")
}

func TestServer_MountsMetricsAndStatus(t *testing.T) {
	srv := New(Options{
		Root:    newTestRoot(t),
		Logger:  quietLogger(),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("metrics")) }),
		Status:  http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("status")) }),
	})
	h := srv.Handler()

	require.Equal(t, "metrics", get(t, h, MetricsPath).Body.String())
	require.Equal(t, "status", get(t, h, StatusPath).Body.String())
	require.Equal(t, "<h1>home</h1>", get(t, h, "/").Body.String())
}

func TestServer_StartStop(t *testing.T) {
	srv := New(Options{Host: "127.0.0.1", Port: 0, Root: newTestRoot(t), Logger: quietLogger()})
	require.NoError(t, srv.Start(context.Background()))
	require.NotNil(t, srv.Addr())
	require.Contains(t, srv.URL(), "http://127.0.0.1:")

	resp, err := http.Get(srv.URL() + "/article/missing.html")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, "<h1>home</h1>", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}

func TestServer_StartFailsWhenPortTaken(t *testing.T) {
	first := New(Options{Host: "127.0.0.1", Root: t.TempDir(), Logger: quietLogger()})
	require.NoError(t, first.Start(context.Background()))
	defer func() { _ = first.Stop(context.Background()) }()

	port := first.Addr().(*net.TCPAddr).Port
	second := New(Options{Host: "127.0.0.1", Port: port, Root: t.TempDir(), Logger: quietLogger()})
	err := second.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, derrors.CategoryRuntime, derrors.GetCategory(err))
}

func TestServer_StopBeforeStart(t *testing.T) {
	require.NoError(t, New(Options{}).Stop(context.Background()))
	require.Empty(t, New(Options{}).URL())
}
