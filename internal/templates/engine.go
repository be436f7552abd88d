// Package templates renders named page templates from a template directory.
//
// A page template lives at {dir}/{name}{ext}. Every *.html file under
// {dir}/partials is parsed alongside it so pages can share {{template "x"}}
// blocks. Templates are re-read on every call; rebuilds always see the files
// currently on disk.
package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// PartialsDir is the subdirectory holding shared templates.
const PartialsDir = "partials"

// Renderer turns a named template and a context map into text.
type Renderer interface {
	Render(name string, data map[string]any) (string, error)
	Exists(name string) bool
}

// Engine is the html/template backed Renderer.
type Engine struct {
	dir   string
	ext   string
	funcs template.FuncMap
}

// NewEngine creates an Engine reading templates from dir with extension ext.
func NewEngine(dir, ext string) *Engine {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Engine{dir: dir, ext: ext, funcs: Funcs()}
}

// Path returns the file backing the named template.
func (e *Engine) Path(name string) string {
	return filepath.Join(e.dir, name+e.ext)
}

// Exists reports whether the named template file is present.
func (e *Engine) Exists(name string) bool {
	info, err := os.Stat(e.Path(name))
	return err == nil && !info.IsDir()
}

// Render executes the named template against data. A missing file yields a
// TemplateMissing error; parse and execution failures yield a RenderError.
func (e *Engine) Render(name string, data map[string]any) (string, error) {
	path := e.Path(name)
	// #nosec G304 -- path is built from the configured templates dir.
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", derrors.TemplateMissing(name).WithContext("path", path).Build()
		}
		return "", derrors.RenderError(name, err).WithContext("path", path).Build()
	}

	tpl := template.New(name).Funcs(e.funcs).Option("missingkey=zero")
	partials, err := e.partials()
	if err != nil {
		return "", derrors.RenderError(name, err).Build()
	}
	for _, p := range partials {
		// #nosec G304 -- partials are listed from the templates dir.
		body, err := os.ReadFile(p)
		if err != nil {
			return "", derrors.RenderError(name, fmt.Errorf("read partial %s: %w", p, err)).Build()
		}
		pname := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if _, err := tpl.New(pname).Parse(string(body)); err != nil {
			return "", derrors.RenderError(name, fmt.Errorf("parse partial %s: %w", pname, err)).Build()
		}
	}
	if _, err := tpl.Parse(string(src)); err != nil {
		return "", derrors.RenderError(name, fmt.Errorf("parse template: %w", err)).WithContext("path", path).Build()
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", derrors.RenderError(name, fmt.Errorf("execute template: %w", err)).WithContext("path", path).Build()
	}
	return buf.String(), nil
}

func (e *Engine) partials() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(e.dir, PartialsDir, "*.html"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
