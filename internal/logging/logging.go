// Package logging owns the process log level and the console presentation of
// log records. Pipeline packages only ever see a *slog.Logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Options configures New.
type Options struct {
	// Level is shared with the handler; adjusting it later takes effect immediately.
	Level *slog.LevelVar
	// Color forces coloring on or off. Nil means detect from the writer.
	Color *bool
}

// NewLevel returns a LevelVar at Info, or Debug when debug is set.
func NewLevel(debug bool) *slog.LevelVar {
	lv := new(slog.LevelVar)
	if debug {
		lv.Set(slog.LevelDebug)
	}
	return lv
}

// New builds the process logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	if opts.Level == nil {
		opts.Level = NewLevel(false)
	}
	color := IsTerminal(w)
	if opts.Color != nil {
		color = *opts.Color
	}
	return slog.New(NewConsoleHandler(w, opts.Level, color))
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
