package content

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

// Parser reads content files into Posts.
type Parser struct {
	md          markdown.Renderer
	logger      *slog.Logger
	now         func() time.Time
	concurrency int
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for per-file warnings.
func WithLogger(l *slog.Logger) Option { return func(p *Parser) { p.logger = l } }

// WithClock overrides the build time used for posts without a date.
func WithClock(now func() time.Time) Option { return func(p *Parser) { p.now = now } }

// WithConcurrency bounds the number of files parsed at once.
func WithConcurrency(n int) Option { return func(p *Parser) { p.concurrency = n } }

// NewParser creates a Parser that converts bodies with md.
func NewParser(md markdown.Renderer, opts ...Option) *Parser {
	p := &Parser{
		md:          md,
		logger:      slog.Default(),
		now:         time.Now,
		concurrency: 1,
	}
	for _, o := range opts {
		o(p)
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	return p
}

// ParsePost reads one file. Failures come back as content errors carrying the
// file path; they are meant to be logged and skipped, not to stop a build.
func (p *Parser) ParsePost(path string) (*Post, error) {
	return p.parseAt(path, p.now())
}

func (p *Parser) parseAt(path string, buildTime time.Time) (*Post, error) {
	src, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryContent, "failed to read post").Warning().WithContext("path", path).Build()
	}
	doc, err := frontmatter.Parse(src)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryContent, "invalid front matter").Warning().WithContext("path", path).Build()
	}

	html, err := p.md.Render(doc.Body)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryContent, "markdown conversion failed").Warning().WithContext("path", path).Build()
	}

	date := buildTime
	if raw, ok := doc.Fields["date"]; ok && raw != nil {
		parsed, err := cast.ToTimeE(raw)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryContent, "invalid date").Warning().WithContext("path", path).Build()
		}
		date = parsed
	}

	title := strings.TrimSpace(cast.ToString(doc.Fields["title"]))
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return &Post{
		Title:       title,
		Categories:  NormalizeCategories(doc.Fields["categories"]),
		Date:        date,
		Tags:        NormalizeTags(doc.Fields["tags"]),
		Content:     html,
		Excerpt:     Excerpt(doc.Body),
		Cover:       strings.TrimSpace(cast.ToString(doc.Fields["cover"])),
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(doc.Raw), string(doc.Body)),
		Source:      path,
		RawBody:     doc.Body,
	}, nil
}

// LoadResult is the outcome of LoadPosts.
type LoadResult struct {
	// Posts sorted by date, newest first; equal dates keep discovery order.
	Posts []*Post
	// Discovered counts Markdown files found, parsed or not.
	Discovered int
	// Failed holds one error per skipped file.
	Failed []error
}

// LoadPosts discovers and parses every Markdown file under dir. Per-file
// failures are logged and skipped; only an unreadable dir is an error.
func (p *Parser) LoadPosts(ctx context.Context, dir string) (*LoadResult, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to discover posts").Fatal().WithContext("path", dir).Build()
	}

	buildTime := p.now()
	parsed := make([]*Post, len(files))
	failures := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			post, err := p.parseAt(file, buildTime)
			if err != nil {
				failures[i] = err
				p.logger.Warn("Skipping post", logfields.Path(file), logfields.Error(err))
				return nil
			}
			parsed[i] = post
			p.logger.Debug("Parsed post", logfields.Path(file), logfields.Post(post.Title))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &LoadResult{Discovered: len(files)}
	for i := range files {
		if parsed[i] != nil {
			res.Posts = append(res.Posts, parsed[i])
		}
		if failures[i] != nil {
			res.Failed = append(res.Failed, failures[i])
		}
	}
	SortByDate(res.Posts)
	return res, nil
}

// SortByDate orders posts newest first. The sort is stable.
func SortByDate(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})
}
