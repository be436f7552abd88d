// Package watch rebuilds the site when its inputs change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// DefaultDebounce collapses bursts of editor writes into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one full build.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Paths are files or directories. Directories are watched recursively.
	Paths    []string
	Build    BuildFunc
	Debounce time.Duration
	Status   *Status
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Watcher observes the build inputs and runs Build after each settled change.
type Watcher struct {
	fs       *fsnotify.Watcher
	build    BuildFunc
	files    map[string]bool
	dirs     []string
	debounce time.Duration
	status   *Status
	logger   *slog.Logger
	recorder metrics.Recorder
	worker   *worker

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a Watcher and registers every path. Missing paths are a
// filesystem error.
func New(opts Options) (*Watcher, error) {
	if opts.Build == nil {
		return nil, derrors.InternalError("watch requires a build function").Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Status == nil {
		opts.Status = NewStatus()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRuntime, "failed to create file watcher").Build()
	}
	w := &Watcher{
		fs:       fw,
		build:    opts.Build,
		files:    map[string]bool{},
		debounce: opts.Debounce,
		status:   opts.Status,
		logger:   opts.Logger,
		recorder: opts.Recorder,
	}
	w.worker = &worker{run: w.rebuild}

	for _, p := range opts.Paths {
		if err := w.add(p); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to resolve watch path").WithContext("path", p).Build()
	}
	st, err := os.Stat(abs)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "watch path not found").WithContext("path", p).Build()
	}
	if !st.IsDir() {
		// Editors replace files by rename, which drops a direct watch.
		w.files[abs] = true
		if err := w.fs.Add(filepath.Dir(abs)); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to watch directory").WithContext("path", filepath.Dir(abs)).Build()
		}
		return nil
	}
	w.dirs = append(w.dirs, abs)
	w.addDirsRecursive(abs)
	return nil
}

func (w *Watcher) addDirsRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && IgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// Run processes events until ctx is done, then waits for an in-flight
// rebuild to finish and closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		w.worker.wait()
		_ = w.fs.Close()
	}()

	w.logger.Info("Watching for changes", logfields.Count(len(w.dirs)+len(w.files)))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !w.relevant(ev.Name) || ShouldIgnore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			w.addDirsRecursive(ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	w.trigger(ctx)
}

// relevant filters events from parent directories watched only for a file.
func (w *Watcher) relevant(name string) bool {
	if w.files[name] {
		return true
	}
	for _, d := range w.dirs {
		if name == d || strings.HasPrefix(name, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) trigger(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		queued := w.worker.request(ctx)
		w.recorder.IncRebuildTrigger(queued)
		if queued {
			w.logger.Debug("Rebuild queued behind running build")
		}
	})
}

func (w *Watcher) rebuild(ctx context.Context) {
	w.logger.Info("Change detected; rebuilding site")
	err := w.build(ctx)
	w.status.Record(err)
	if err != nil {
		// The previous output stays in place and keeps being served.
		w.logger.Warn("Rebuild failed", logfields.Error(err))
		return
	}
	w.logger.Info("Rebuild finished")
}

// ShouldIgnore reports whether a change to path must not trigger a rebuild.
// Ignored directories are never added to the watch, so only their own
// creation is seen here.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case IgnoredDir(base), strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db", base == "4913":
		return true
	}
	return false
}

// IgnoredDir reports whether a directory name is dependency or
// version-control housekeeping.
func IgnoredDir(name string) bool {
	switch name {
	case "node_modules", ".git", "vendor", ".hg", ".svn":
		return true
	}
	return false
}
