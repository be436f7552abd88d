// Package render drives a full site build: load posts, assign routes, render
// every page, then write the manifest, sitemap, assets and report.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/report"
	"git.home.luguber.info/inful/blogbuilder/internal/routing"
	"git.home.luguber.info/inful/blogbuilder/internal/sitemap"
	"git.home.luguber.info/inful/blogbuilder/internal/templates"
)

// Page template names.
const (
	TemplateIndex   = "index"
	TemplatePost    = "post"
	TemplateGists   = "gists"
	TemplateArticle = "article"
)

// Output file names at the root of the output tree.
const (
	IndexFile  = "index.html"
	PostFile   = "post.html"
	GistsFile  = "gists.html"
	AssetsPath = "assets"
)

// Stage names used for logging and metrics.
const (
	StageValidate  = "validate"
	StageLoadPosts = "load_posts"
	StageClean     = "clean_output"
	StageIndex     = "render_index"
	StagePostList  = "render_post_list"
	StageGists     = "render_gists"
	StageArticles  = "render_articles"
	StageManifest  = "manifest"
	StageSitemap   = "sitemap"
	StageAssets    = "assets"
	StageReport    = "report"
	StagePromote   = "promote"
)

// Builder runs full builds for one configuration.
type Builder struct {
	cfg      *config.Config
	md       markdown.Renderer
	engine   templates.Renderer
	logger   *slog.Logger
	recorder metrics.Recorder
	now      func() time.Time
	newID    func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithMarkdown replaces the goldmark renderer.
func WithMarkdown(md markdown.Renderer) Option { return func(b *Builder) { b.md = md } }

// WithTemplates replaces the html/template engine.
func WithTemplates(e templates.Renderer) Option { return func(b *Builder) { b.engine = e } }

// WithLogger sets the base logger; each build adds its build_id.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithClock overrides the build time source.
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// NewBuilder creates a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(b)
	}
	if b.recorder == nil {
		b.recorder = metrics.NoopRecorder{}
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.md == nil {
		b.md = markdown.New()
	}
	if b.engine == nil {
		b.engine = templates.NewEngine(cfg.Build.TemplatesDir, cfg.Build.TemplateExt)
	}
	return b
}

// Build runs every build step in order. Pages are written to a staging
// directory that replaces the output directory only once every step has run,
// so a fatal failure leaves the previous output in place. The returned error
// is non-nil only for fatal failures (missing input dirs, unreadable posts
// dir, output preparation, the index/post listing pages, or ctx ending);
// everything else is recorded in the Result and logged.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := b.now()
	res := &Result{BuildID: b.newID(), StartTime: start}
	logger := b.logger.With(logfields.BuildID(res.BuildID))
	logger.Info("Starting build", logfields.Path(b.cfg.Path))

	fail := func(stage string, err error) (*Result, error) {
		res.Status = StatusFailed
		res.Duration = time.Since(start)
		b.recorder.IncStageResult(stage, metrics.ResultFatal)
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		b.recorder.ObserveBuildDuration(res.Duration)
		logger.Error("Build failed", logfields.Step(stage), logfields.Error(err))
		return res, err
	}
	stageDone := func(stage string, t time.Time, result metrics.ResultLabel) {
		b.recorder.ObserveStageDuration(stage, time.Since(t))
		b.recorder.IncStageResult(stage, result)
	}
	warn := func(stage string, msg string, err error) {
		res.Warnings = append(res.Warnings, err)
		logger.Warn(msg, logfields.Step(stage), logfields.Error(err))
	}

	// 1. validate inputs
	t := time.Now()
	if err := b.validateInputs(); err != nil {
		return fail(StageValidate, err)
	}
	stageDone(StageValidate, t, metrics.ResultSuccess)

	// 2. discover, parse, sort, route
	t = time.Now()
	parser := content.NewParser(b.md,
		content.WithLogger(logger),
		content.WithClock(func() time.Time { return start }),
		content.WithConcurrency(b.cfg.Build.Concurrency))
	loaded, err := parser.LoadPosts(ctx, b.cfg.Build.PostsDir)
	if err != nil {
		return fail(StageLoadPosts, err)
	}
	if err := routing.Assign(loaded.Posts, b.cfg.Routing); err != nil {
		return fail(StageLoadPosts, derrors.WrapError(err, derrors.CategoryConfig, "failed to assign routes").Fatal().Build())
	}
	res.Posts = loaded.Posts
	res.Discovered = loaded.Discovered
	res.ParseFailures = loaded.Failed
	b.recorder.SetPostCounts(len(loaded.Posts), len(loaded.Failed))
	stageDone(StageLoadPosts, t, resultFor(len(loaded.Failed) == 0))
	logger.Info("Loaded posts",
		logfields.Count(len(loaded.Posts)),
		slog.Int("discovered", loaded.Discovered),
		slog.Int("skipped", len(loaded.Failed)))

	if err := ctx.Err(); err != nil {
		return fail(StageLoadPosts, err)
	}

	// 3. start from an empty tree; must finish before any write
	t = time.Now()
	stage, err := beginStaging(b.cfg.Build.OutputDir, logger)
	if err != nil {
		return fail(StageClean, derrors.BuildError("failed to prepare output directory").
			WithCause(err).WithContext("path", b.cfg.Build.OutputDir).Build())
	}
	out := stage.dir
	abort := func(step string, err error) (*Result, error) {
		stage.abort()
		return fail(step, err)
	}
	stageDone(StageClean, t, metrics.ResultSuccess)

	r := NewRenderer(b.engine, NewSiteContext(b.cfg, start), logger, b.recorder)
	r.root = out
	posts := res.Posts
	if posts == nil {
		posts = []*content.Post{}
	}

	// 4. index
	t = time.Now()
	limit := min(b.cfg.Build.IndexLimit, len(posts))
	if err := r.Render(TemplateIndex, map[string]any{
		"posts":    posts[:limit],
		"allPosts": posts,
	}, filepath.Join(out, IndexFile)); err != nil {
		return abort(StageIndex, err)
	}
	res.Pages++
	stageDone(StageIndex, t, metrics.ResultSuccess)

	// 5. post listing
	t = time.Now()
	if err := r.Render(TemplatePost, map[string]any{"posts": posts}, filepath.Join(out, PostFile)); err != nil {
		return abort(StagePostList, err)
	}
	res.Pages++
	stageDone(StagePostList, t, metrics.ResultSuccess)

	// 6. gists, only with a template and a non-empty list
	t = time.Now()
	switch {
	case len(b.cfg.Gists) == 0:
		logger.Debug("Skipping gists page", slog.String("reason", "no gists configured"))
	case !b.engine.Exists(TemplateGists):
		logger.Debug("Skipping gists page", slog.String("reason", "no gists template"))
	default:
		if err := r.Render(TemplateGists, map[string]any{"gists": b.cfg.Gists}, filepath.Join(out, GistsFile)); err != nil {
			warn(StageGists, "Gists page failed", err)
			stageDone(StageGists, t, metrics.ResultWarning)
		} else {
			res.Pages++
			res.GistsRendered = true
			stageDone(StageGists, t, metrics.ResultSuccess)
		}
	}

	// 7. one page per post, independent of each other
	t = time.Now()
	articleDir := filepath.Join(out, filepath.FromSlash(strings.Trim(b.cfg.Routing.BasePath, "/")))
	if !b.engine.Exists(TemplateArticle) {
		if len(posts) > 0 {
			warn(StageArticles, "Skipping article pages", derrors.TemplateMissing(TemplateArticle).Build())
		}
		stageDone(StageArticles, t, metrics.ResultWarning)
	} else {
		rendered, failures, err := b.renderArticles(ctx, r, logger, posts, articleDir)
		if err != nil {
			return abort(StageArticles, err)
		}
		res.RenderFailures = failures
		res.Pages += rendered
		stageDone(StageArticles, t, resultFor(len(res.RenderFailures) == 0))
	}

	// 8. manifest
	t = time.Now()
	m := manifest.New(start, res.Posts)
	if path, err := m.Write(out); err != nil {
		warn(StageManifest, "Manifest failed", err)
		stageDone(StageManifest, t, metrics.ResultWarning)
	} else {
		res.ManifestPath = filepath.Join(b.cfg.Build.OutputDir, filepath.Base(path))
		if hash, err := m.Hash(); err == nil {
			res.ContentHash = hash
		}
		stageDone(StageManifest, t, metrics.ResultSuccess)
	}

	// 9. sitemap
	t = time.Now()
	if _, err := sitemap.Write(out, sitemap.Input{
		BaseURL:   b.cfg.Site.BaseURL,
		Posts:     res.Posts,
		WithGists: res.GistsRendered,
		Generated: start,
	}); err != nil {
		warn(StageSitemap, "Sitemap failed", err)
		stageDone(StageSitemap, t, metrics.ResultWarning)
	} else {
		stageDone(StageSitemap, t, metrics.ResultSuccess)
	}

	// 10. assets
	t = time.Now()
	copied, err := copyTree(b.cfg.Build.AssetsDir, filepath.Join(out, AssetsPath))
	switch {
	case err != nil:
		warn(StageAssets, "Asset copy failed", derrors.WrapError(err, derrors.CategoryFileSystem, "failed to copy assets").
			WithContext("path", b.cfg.Build.AssetsDir).Build())
		stageDone(StageAssets, t, metrics.ResultWarning)
	case !copied:
		logger.Debug("No assets directory", logfields.Path(b.cfg.Build.AssetsDir))
		stageDone(StageAssets, t, metrics.ResultSuccess)
	default:
		res.AssetsCopied = true
		stageDone(StageAssets, t, metrics.ResultSuccess)
	}

	// report
	t = time.Now()
	if rep, err := report.Generate(out); err != nil {
		warn(StageReport, "Build report failed", err)
		stageDone(StageReport, t, metrics.ResultWarning)
	} else {
		if err := rep.CheckLinks(out, b.cfg.Site.BaseURL); err != nil {
			logger.Warn("Link check failed", logfields.Error(err))
		}
		rep.Log(logger)
		res.Report = rep
		stageDone(StageReport, t, metrics.ResultSuccess)
	}

	// swap the finished tree into place
	if err := stage.promote(); err != nil {
		return abort(StagePromote, derrors.BuildError("failed to promote output").
			WithCause(err).WithContext("path", b.cfg.Build.OutputDir).Build())
	}

	res.Duration = time.Since(start)
	res.Status = StatusSuccess
	outcome := metrics.BuildOutcomeSuccess
	if res.HasWarnings() {
		res.Status = StatusWarning
		outcome = metrics.BuildOutcomeWarning
	}
	b.recorder.IncBuildOutcome(outcome)
	b.recorder.ObserveBuildDuration(res.Duration)
	logger.Info("Build finished",
		slog.String("status", string(res.Status)),
		logfields.Count(len(res.Posts)),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	return res, nil
}

func (b *Builder) validateInputs() error {
	for _, dir := range []struct{ key, path string }{
		{"build.posts_dir", b.cfg.Build.PostsDir},
		{"build.templates_dir", b.cfg.Build.TemplatesDir},
	} {
		info, err := os.Stat(dir.path)
		if err != nil {
			msg := "input directory is not accessible"
			if errors.Is(err, os.ErrNotExist) {
				msg = "input directory not found"
			}
			return derrors.WrapError(err, derrors.CategoryFileSystem, msg).
				Fatal().WithContext("path", dir.path).WithContext("key", dir.key).Build()
		}
		if !info.IsDir() {
			return derrors.FileSystemError("input path is not a directory").
				Fatal().WithContext("path", dir.path).WithContext("key", dir.key).Build()
		}
	}
	return nil
}

// renderArticles writes one page per post and returns how many were written.
// Per-post failures are collected; the error is non-nil only when ctx ends
// before every post was attempted.
func (b *Builder) renderArticles(ctx context.Context, r *Renderer, logger *slog.Logger, posts []*content.Post, dir string) (int, []error, error) {
	var (
		mu       sync.Mutex
		rendered int
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.cfg.Build.Concurrency, 1))
	for i, p := range posts {
		page := map[string]any{
			"post":  p,
			"posts": posts,
			"prev":  neighbor(posts, i+1),
			"next":  neighbor(posts, i-1),
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.Render(TemplateArticle, page, filepath.Join(dir, p.FileName)); err != nil {
				logger.Warn("Skipping article",
					logfields.Post(p.Title),
					logfields.Path(p.Source),
					logfields.Error(err))
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", p.Source, err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			rendered++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return rendered, failures, err
}

// neighbor returns posts[i], or nil when i is out of range.
func neighbor(posts []*content.Post, i int) *content.Post {
	if i < 0 || i >= len(posts) {
		return nil
	}
	return posts[i]
}

func resultFor(ok bool) metrics.ResultLabel {
	if ok {
		return metrics.ResultSuccess
	}
	return metrics.ResultWarning
}
