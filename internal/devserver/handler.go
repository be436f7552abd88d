package devserver

import (
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"syscall"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// IndexFile is served for the root path and for directory paths.
const IndexFile = "index.html"

// DefaultContentType is used when the extension has no registered type.
const DefaultContentType = "text/plain; charset=utf-8"

// FileHandler serves files from an output tree.
type FileHandler struct {
	root    string
	adapter *derrors.HTTPErrorAdapter
	logger  *slog.Logger
}

// NewFileHandler creates a handler rooted at root.
func NewFileHandler(root string, logger *slog.Logger) *FileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHandler{root: filepath.Clean(root), adapter: derrors.NewHTTPErrorAdapter(logger), logger: logger}
}

func (h *FileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, f, info, err := h.open(r.URL.Path)
	if err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", ContentType(name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// open maps a request path to a file. The cleaned path can never leave root.
func (h *FileHandler) open(urlPath string) (string, *os.File, os.FileInfo, error) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		clean = "/" + IndexFile
	}
	full := filepath.Join(h.resolveRoot(), filepath.FromSlash(clean))

	info, err := os.Stat(full)
	if err != nil {
		return "", nil, nil, classify(err, clean)
	}
	if info.IsDir() {
		full = filepath.Join(full, IndexFile)
		if info, err = os.Stat(full); err != nil {
			return "", nil, nil, classify(err, clean)
		}
		if info.IsDir() {
			return "", nil, nil, derrors.NotFoundError("file not found").WithContext("path", clean).Build()
		}
	}

	// #nosec G304 -- full is rooted at the output dir after path.Clean.
	f, err := os.Open(full)
	if err != nil {
		return "", nil, nil, classify(err, clean)
	}
	return filepath.Base(full), f, info, nil
}

// resolveRoot prefers the live output dir and falls back to the backup kept
// while a finished build is being swapped in.
func (h *FileHandler) resolveRoot() string {
	if _, err := os.Stat(h.root); err == nil {
		return h.root
	}
	prev := h.root + ".prev"
	if st, err := os.Stat(prev); err == nil && st.IsDir() {
		h.logger.Debug("Serving from backup directory", slog.String("path", prev))
		return prev
	}
	return h.root
}

// classify maps lookup failures to not found, including paths that continue
// past a regular file.
func classify(err error, urlPath string) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return derrors.NotFoundError("file not found").WithContext("path", urlPath).Build()
	}
	return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read file").WithContext("path", urlPath).Build()
}

// ContentType returns the MIME type for name's extension, or DefaultContentType.
func ContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return DefaultContentType
}
