// Package content turns Markdown files with YAML front matter into Post records.
package content

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"
)

// Uncategorized is the category assigned to posts that declare none.
const Uncategorized = "uncategorized"

// ExcerptLength is the number of body characters kept in an excerpt.
const ExcerptLength = 200

// Ellipsis terminates every excerpt.
const Ellipsis = "…"

// Post is one content item. Routing fields (ID, FileName, URL) are empty until
// the routing pass runs over the fully sorted post list.
type Post struct {
	Title       string    `json:"title"`
	Categories  string    `json:"categories"`
	Date        time.Time `json:"date"`
	Tags        []string  `json:"tags"`
	Content     string    `json:"content"`
	Excerpt     string    `json:"excerpt"`
	Cover       string    `json:"cover,omitempty"`
	ID          string    `json:"id,omitempty"`
	FileName    string    `json:"fileName"`
	URL         string    `json:"url"`
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`

	// RawBody is the Markdown body exactly as read, front matter excluded.
	RawBody []byte `json:"-"`
}

// Excerpt returns the first ExcerptLength characters of body followed by Ellipsis.
// The cut ignores word and markup boundaries.
func Excerpt(body []byte) string {
	n := 0
	for i := range body {
		if !utf8.RuneStart(body[i]) {
			continue
		}
		if n == ExcerptLength {
			return string(body[:i]) + Ellipsis
		}
		n++
	}
	return string(body) + Ellipsis
}

// NormalizeTags accepts a list or a comma-separated string. Entries are
// trimmed and NFC-normalized; empty entries and duplicates are dropped while
// declaration order is kept.
func NormalizeTags(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			raw = append(raw, cast.ToString(item))
		}
	case []string:
		raw = t
	default:
		raw = strings.Split(cast.ToString(t), ",")
	}

	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = norm.NFC.String(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// NormalizeCategories flattens a string or list value; empty becomes Uncategorized.
func NormalizeCategories(v any) string {
	var out string
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(cast.ToString(item)); s != "" {
				parts = append(parts, s)
			}
		}
		out = strings.Join(parts, ", ")
	default:
		out = strings.TrimSpace(cast.ToString(v))
	}
	if out == "" {
		return Uncategorized
	}
	return out
}
