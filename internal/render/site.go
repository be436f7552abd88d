package render

import (
	"maps"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/templates"
)

// Site context keys available to every template.
const (
	KeySite       = "site"
	KeyFeatures   = "features"
	KeySocial     = "social"
	KeyTech       = "tech"
	KeyGists      = "gists"
	KeyFormatDate = "formatDate"
	KeyBaseURL    = "baseURL"
	KeyBasePath   = "basePath"
	KeyBuildTime  = "buildTime"
)

// SiteContext is the read-only data shared by all renders of one build.
type SiteContext map[string]any

// NewSiteContext assembles the shared context from cfg. The returned maps are
// copies; templates cannot reach back into the configuration.
func NewSiteContext(cfg *config.Config, buildTime time.Time) SiteContext {
	site := make(map[string]string, len(cfg.Site.Params)+2)
	maps.Copy(site, cfg.Site.Params)
	site["base_url"] = cfg.Site.BaseURL
	if _, ok := site["title"]; !ok {
		site["title"] = cfg.Site.Title
	}

	return SiteContext{
		KeySite:       site,
		KeyFeatures:   maps.Clone(cfg.Features),
		KeySocial:     maps.Clone(cfg.Social),
		KeyTech:       append([]config.ListItem(nil), cfg.Tech...),
		KeyGists:      append([]config.ListItem(nil), cfg.Gists...),
		KeyFormatDate: templates.FormatDate,
		KeyBaseURL:    cfg.Site.BaseURL,
		KeyBasePath:   cfg.Routing.BasePath,
		KeyBuildTime:  buildTime,
	}
}

// Merge returns a new map holding the site context overlaid with page. Page
// keys win on conflict.
func (s SiteContext) Merge(page map[string]any) map[string]any {
	out := make(map[string]any, len(s)+len(page))
	maps.Copy(out, s)
	maps.Copy(out, page)
	return out
}
