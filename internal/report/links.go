package report

import (
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Link is a reference found in a generated HTML page.
type Link struct {
	URL       string
	Tag       string
	Attribute string
}

// BrokenLink is an internal link whose target is not in the output tree.
type BrokenLink struct {
	Page string // page containing the link, relative to the output dir
	Link Link
}

// ExtractLinks returns href/src references from an HTML document in document order.
func ExtractLinks(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryValidation, "failed to parse HTML").Build()
	}

	var links []Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr := linkAttribute(n.Data); attr != "" {
				if v := getAttr(n, attr); v != "" {
					links = append(links, Link{URL: v, Tag: n.Data, Attribute: attr})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

func linkAttribute(tag string) string {
	switch tag {
	case "a", "link":
		return "href"
	case "img", "script", "video", "audio", "source":
		return "src"
	}
	return ""
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// CheckLinks parses every .html file in r and reports internal links that do
// not resolve to a file under dir. Links on baseURL's host count as internal.
func (r *Report) CheckLinks(dir, baseURL string) error {
	base, err := url.Parse(baseURL)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryValidation, "invalid base URL").WithContext("base_url", baseURL).Build()
	}
	for _, f := range r.Files {
		if !strings.HasSuffix(f.Path, ".html") {
			continue
		}
		links, err := extractFile(filepath.Join(dir, filepath.FromSlash(f.Path)))
		if err != nil {
			return err
		}
		for _, l := range links {
			target, ok := localTarget(l.URL, f.Path, base)
			if !ok {
				continue
			}
			if !exists(dir, target) {
				r.Broken = append(r.Broken, BrokenLink{Page: f.Path, Link: l})
			}
		}
	}
	return nil
}

func extractFile(p string) ([]Link, error) {
	file, err := os.Open(filepath.Clean(p))
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to open HTML file").WithContext("path", p).Build()
	}
	defer func() { _ = file.Close() }()
	return ExtractLinks(file)
}

// localTarget maps an internal link to a slash path relative to the output
// root. ok is false for external, anchor-only and special-scheme links.
func localTarget(link, page string, base *url.URL) (string, bool) {
	if link == "" || strings.HasPrefix(link, "#") {
		return "", false
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(link, prefix) {
			return "", false
		}
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" {
		if base == nil || u.Host != base.Host {
			return "", false
		}
		// Same host: strip any base path prefix.
		p := strings.TrimPrefix(u.Path, strings.TrimRight(base.Path, "/"))
		return strings.TrimPrefix(path.Clean("/"+p), "/"), true
	}
	if u.Path == "" {
		return "", false
	}
	if strings.HasPrefix(u.Path, "/") {
		return strings.TrimPrefix(path.Clean(u.Path), "/"), true
	}
	return strings.TrimPrefix(path.Clean(path.Join("/", path.Dir(page), u.Path)), "/"), true
}

func exists(dir, target string) bool {
	p := filepath.Join(dir, filepath.FromSlash(target))
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = os.Stat(filepath.Join(p, "index.html"))
		return err == nil
	}
	return true
}
