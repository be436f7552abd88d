package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/templates"
)

// Renderer renders one page at a time against a fixed site context.
type Renderer struct {
	engine   templates.Renderer
	site     SiteContext
	logger   *slog.Logger
	recorder metrics.Recorder
	// root, when set, shortens logged output paths.
	root string
}

// NewRenderer creates a Renderer. A nil recorder disables metrics.
func NewRenderer(engine templates.Renderer, site SiteContext, logger *slog.Logger, recorder metrics.Recorder) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Renderer{engine: engine, site: site, logger: logger, recorder: recorder}
}

// Render executes templateName with page merged over the site context and
// writes the result to outputPath, creating parent directories. Engine errors
// are returned as-is (TemplateMissing or RenderError); write failures are
// filesystem errors.
func (r *Renderer) Render(templateName string, page map[string]any, outputPath string) error {
	out, err := r.engine.Render(templateName, r.site.Merge(page))
	if err != nil {
		r.recorder.IncPageRender(templateName, false)
		return err
	}
	if err := writeFile(outputPath, []byte(out)); err != nil {
		r.recorder.IncPageRender(templateName, false)
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write page").
			WithContext("path", outputPath).
			WithContext("template", templateName).
			Build()
	}
	r.recorder.IncPageRender(templateName, true)
	r.logger.Info("Wrote page",
		logfields.Output(r.display(outputPath)),
		logfields.Size(humanize.Bytes(uint64(len(out)))))
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

func (r *Renderer) display(path string) string {
	if r.root == "" {
		return path
	}
	if rel, err := filepath.Rel(r.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
