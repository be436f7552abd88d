// Package sitemap renders sitemap.xml for a finished build.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// FileName is the sitemap's name inside the output tree.
const FileName = "sitemap.xml"

// Namespace is the sitemaps.org schema namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

const lastModLayout = "2006-01-02"

// Change frequency and priority hints per page kind.
const (
	rootChangeFreq    = "daily"
	rootPriority      = "1.0"
	listChangeFreq    = "daily"
	listPriority      = "0.8"
	gistsChangeFreq   = "weekly"
	gistsPriority     = "0.5"
	articleChangeFreq = "monthly"
	articlePriority   = "0.7"
)

type urlEntry struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq"`
	Priority   string   `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// Input describes what the build produced.
type Input struct {
	BaseURL   string
	Posts     []*content.Post
	WithGists bool
	Generated time.Time
}

// Generate returns the sitemap document: site root, post listing, the gists
// page when it was rendered, then one entry per post in listing order.
func Generate(in Input) ([]byte, error) {
	today := in.Generated.Format(lastModLayout)
	urls := []urlEntry{
		makeEntry(in.BaseURL, "/", today, rootChangeFreq, rootPriority),
		makeEntry(in.BaseURL, "/post.html", today, listChangeFreq, listPriority),
	}
	if in.WithGists {
		urls = append(urls, makeEntry(in.BaseURL, "/gists.html", today, gistsChangeFreq, gistsPriority))
	}
	for _, p := range in.Posts {
		lastMod := ""
		if !p.Date.IsZero() {
			lastMod = p.Date.Format(lastModLayout)
		}
		urls = append(urls, makeEntry(in.BaseURL, p.URL, lastMod, articleChangeFreq, articlePriority))
	}

	output, err := xml.MarshalIndent(urlSet{XMLNS: Namespace, URLs: urls}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return []byte(xml.Header + string(output) + "\n"), nil
}

// Write generates the sitemap and stores it as FileName under dir.
func Write(dir string, in Input) (string, error) {
	data, err := Generate(in)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write sitemap: %w", err)
	}
	return path, nil
}

func makeEntry(baseURL, path, lastMod, freq, priority string) urlEntry {
	return urlEntry{
		Loc:        strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"),
		LastMod:    lastMod,
		ChangeFreq: freq,
		Priority:   priority,
	}
}
