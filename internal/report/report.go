// Package report summarizes a finished output tree for diagnostics.
package report

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// File is one entry of the output tree.
type File struct {
	Path  string // slash-separated, relative to the output dir
	Bytes int64
}

// Report holds aggregate statistics about an output tree.
type Report struct {
	Files      []File
	TotalBytes int64
	Broken     []BrokenLink
}

// Count returns the number of files.
func (r *Report) Count() int { return len(r.Files) }

// TotalSize returns TotalBytes in human-readable form.
func (r *Report) TotalSize() string { return humanize.Bytes(uint64(max(r.TotalBytes, 0))) }

// Generate walks dir and records every regular file with its size. Files are
// listed in lexical path order.
func Generate(dir string) (*Report, error) {
	r := &Report{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		r.Files = append(r.Files, File{Path: filepath.ToSlash(rel), Bytes: info.Size()})
		r.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to walk output tree").
			WithContext("path", dir).
			Build()
	}
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })
	return r, nil
}

// Log writes the summary at info, per-file sizes at debug and each broken link
// at warn.
func (r *Report) Log(logger *slog.Logger) {
	logger.Info("Build report",
		logfields.Count(r.Count()),
		logfields.Bytes(r.TotalBytes),
		logfields.Size(r.TotalSize()))
	for _, f := range r.Files {
		logger.Debug("Output file",
			logfields.Path(f.Path),
			logfields.Size(humanize.Bytes(uint64(max(f.Bytes, 0)))))
	}
	for _, b := range r.Broken {
		logger.Warn("Broken internal link",
			logfields.Path(b.Page),
			slog.String("link", b.Link.URL),
			slog.String("tag", b.Link.Tag))
	}
}
