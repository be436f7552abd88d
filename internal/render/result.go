package render

import (
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/report"
)

// Status is the final state of a build.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// IsSuccess reports whether the build produced a usable output tree.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusWarning
}

// Result describes one build.
type Result struct {
	BuildID   string
	Status    Status
	StartTime time.Time
	Duration  time.Duration

	// Posts in listing order with routes assigned.
	Posts      []*content.Post
	Discovered int

	// ParseFailures holds one error per skipped post file.
	ParseFailures []error
	// RenderFailures holds one error per article page that was not written.
	RenderFailures []error
	// Warnings holds non-fatal failures of the optional steps.
	Warnings []error

	Pages         int
	GistsRendered bool
	AssetsCopied  bool
	ManifestPath  string
	ContentHash   string
	Report        *report.Report
}

// HasWarnings reports whether anything was skipped or degraded.
func (r *Result) HasWarnings() bool {
	return len(r.ParseFailures) > 0 || len(r.RenderFailures) > 0 || len(r.Warnings) > 0
}
