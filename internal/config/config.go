package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file read when no -c flag is given.
const DefaultPath = "config.conf"

// Routing modes.
const (
	RoutingMD5        = "md5"
	RoutingSequential = "sequential"
)

// Defaults applied after parsing.
const (
	DefaultRoutingType = RoutingMD5
	DefaultBasePath    = "/article"
	DefaultIndexLimit  = 5
	DefaultTemplateExt = ".html"
	DefaultAssetsDir   = "assets"
)

// Config is the typed view of a parsed configuration file. It is built once at
// startup and never mutated afterwards.
type Config struct {
	Path     string
	Sections Sections

	Build    BuildConfig
	Site     SiteConfig
	Routing  RoutingConfig
	Features map[string]any
	Social   map[string]string
	Tech     []ListItem
	Gists    []ListItem
}

// BuildConfig locates the build inputs and outputs.
type BuildConfig struct {
	PostsDir     string
	TemplatesDir string
	OutputDir    string
	AssetsDir    string
	TemplateExt  string
	IndexLimit   int
	Concurrency  int
}

// SiteConfig carries site metadata for templates.
type SiteConfig struct {
	BaseURL string
	Title   string
	// Params holds every key of the [site] section, including base_url and title.
	Params map[string]string
}

// RoutingConfig selects how post file names and URLs are derived.
type RoutingConfig struct {
	Type     string
	BasePath string
}

// ListItem is one entry of a list-valued key. Bare items have an empty Label.
type ListItem struct {
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

// Load reads, parses and validates the configuration at path. Any failure is
// returned as a fatal config error; callers must not start a build without a
// valid Config.
func Load(path string) (*Config, error) {
	loadEnvFiles(filepath.Dir(path))

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		msg := "failed to read configuration file"
		if errors.Is(err, fs.ErrNotExist) {
			msg = "configuration file not found"
		}
		return nil, derrors.WrapError(err, derrors.CategoryConfig, msg).Fatal().WithContext("path", path).Build()
	}
	defer func() { _ = f.Close() }()

	sections, err := Parse(f)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to parse configuration").Fatal().WithContext("path", path).Build()
	}
	expandEnv(sections)

	cfg, err := FromSections(sections)
	if err != nil {
		if c, ok := derrors.AsClassified(err); ok {
			return nil, c.WithContext("path", path)
		}
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// FromSections builds and validates a Config from parsed sections.
func FromSections(sections Sections) (*Config, error) {
	cfg := &Config{
		Sections: sections,
		Features: map[string]any{},
		Social:   map[string]string{},
	}

	build := sections.Get("build")
	cfg.Build = BuildConfig{
		PostsDir:     build.String("posts_dir"),
		TemplatesDir: build.String("templates_dir"),
		OutputDir:    build.String("output_dir"),
		AssetsDir:    build.String("assets_dir"),
		TemplateExt:  build.String("template_ext"),
	}
	var err error
	if cfg.Build.IndexLimit, err = intValue(build, "index_limit", DefaultIndexLimit); err != nil {
		return nil, err
	}
	if cfg.Build.Concurrency, err = intValue(build, "concurrency", runtime.NumCPU()); err != nil {
		return nil, err
	}

	site := sections.Get("site")
	cfg.Site = SiteConfig{
		BaseURL: strings.TrimRight(site.String("base_url"), "/"),
		Title:   site.String("title"),
		Params:  map[string]string{},
	}
	if site != nil {
		for _, k := range site.Keys {
			cfg.Site.Params[k] = site.String(k)
		}
	}

	routing := sections.Get("routing")
	cfg.Routing = RoutingConfig{
		Type:     routing.String("type"),
		BasePath: routing.String("base_path"),
	}

	if features := sections.Get("features"); features != nil {
		for _, k := range features.Keys {
			raw := features.String(k)
			if b, err := cast.ToBoolE(raw); err == nil {
				cfg.Features[k] = b
			} else {
				cfg.Features[k] = raw
			}
		}
	}
	if social := sections.Get("social"); social != nil {
		for _, k := range social.Keys {
			cfg.Social[k] = social.String(k)
		}
	}
	cfg.Tech = listItems(sections.Get("tech"))
	cfg.Gists = listItems(sections.Get("gists"))

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Routing.Type) == "" {
		cfg.Routing.Type = DefaultRoutingType
	}
	if cfg.Routing.BasePath == "" {
		cfg.Routing.BasePath = DefaultBasePath
	}
	cfg.Routing.BasePath = "/" + strings.Trim(cfg.Routing.BasePath, "/")
	if cfg.Build.AssetsDir == "" {
		cfg.Build.AssetsDir = DefaultAssetsDir
	}
	for _, dir := range []*string{&cfg.Build.PostsDir, &cfg.Build.TemplatesDir, &cfg.Build.OutputDir, &cfg.Build.AssetsDir} {
		if *dir != "" {
			*dir = filepath.Clean(*dir)
		}
	}
	if cfg.Build.TemplateExt == "" {
		cfg.Build.TemplateExt = DefaultTemplateExt
	}
	if !strings.HasPrefix(cfg.Build.TemplateExt, ".") {
		cfg.Build.TemplateExt = "." + cfg.Build.TemplateExt
	}
	if cfg.Build.IndexLimit <= 0 {
		cfg.Build.IndexLimit = DefaultIndexLimit
	}
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = 1
	}
}

func intValue(s *Section, key string, def int) (int, error) {
	raw := s.String(key)
	if raw == "" {
		return def, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, derrors.WrapError(err, derrors.CategoryConfig, "invalid integer value").
			Fatal().
			WithContext("key", s.Name+"."+key).
			Build()
	}
	return n, nil
}

// listItems flattens every key of a list-style section in declaration order.
// Scalar keys become {key: value} items.
func listItems(s *Section) []ListItem {
	if s == nil {
		return nil
	}
	var items []ListItem
	for _, k := range s.Keys {
		switch v := s.Values[k].(type) {
		case string:
			if v != "" {
				items = append(items, ListItem{Label: k, Value: v})
			}
		case []any:
			for _, raw := range v {
				items = append(items, toListItem(raw))
			}
		}
	}
	return items
}

func toListItem(raw any) ListItem {
	switch v := raw.(type) {
	case map[string]string:
		for label, value := range v {
			return ListItem{Label: label, Value: value}
		}
	case string:
		return ListItem{Value: v}
	}
	return ListItem{Value: cast.ToString(raw)}
}

// loadEnvFiles loads .env then .env.local from dir. Existing variables win and
// missing files are ignored.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func expandEnv(sections Sections) {
	for _, s := range sections {
		for k, v := range s.Values {
			switch val := v.(type) {
			case string:
				s.Values[k] = os.ExpandEnv(val)
			case []any:
				for i, item := range val {
					switch it := item.(type) {
					case string:
						val[i] = os.ExpandEnv(it)
					case map[string]string:
						for label, value := range it {
							it[label] = os.ExpandEnv(value)
						}
					}
				}
			}
		}
	}
}
