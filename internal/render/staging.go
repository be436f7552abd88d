package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Suffixes of the sibling directories used while promoting a build.
const (
	stageSuffix  = "_stage"
	backupSuffix = ".prev"
)

// staging writes a build next to the live output and swaps it in at the end,
// so a failed build leaves the previous output untouched.
type staging struct {
	out    string
	dir    string
	logger *slog.Logger
}

// beginStaging removes any leftover staging dir and creates an empty one.
// out is cleaned first so a trailing separator cannot put the siblings inside it.
func beginStaging(out string, logger *slog.Logger) (*staging, error) {
	out = filepath.Clean(out)
	dir := out + stageSuffix
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("remove stale staging directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	logger.Debug("Initialized staging directory", slog.String("staging", dir), logfields.Output(out))
	return &staging{out: out, dir: dir, logger: logger}, nil
}

// promote moves the live output to out.prev, renames staging to out and
// drops the backup.
func (s *staging) promote() error {
	prev := s.out + backupSuffix
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}
	if _, err := os.Stat(s.out); err == nil {
		if err := os.Rename(s.out, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(s.dir, s.out); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	if err := os.RemoveAll(prev); err != nil {
		s.logger.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	s.logger.Debug("Promoted staging directory", logfields.Output(s.out))
	return nil
}

// abort removes the staging dir after a failed build.
func (s *staging) abort() {
	if err := os.RemoveAll(s.dir); err != nil {
		s.logger.Warn("Failed to remove staging directory", slog.String("staging", s.dir), logfields.Error(err))
	}
}
