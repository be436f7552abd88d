package templates

import (
	"html/template"
	"strings"

	"github.com/spf13/cast"
)

// DateLayout is the layout used by formatDate.
const DateLayout = "2006-01-02 15:04"

// FormatDate renders a date for display. Accepts anything cast can read as a
// time; unreadable values render as an empty string.
func FormatDate(v any) string {
	t, err := cast.ToTimeE(v)
	if err != nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Funcs returns the function map available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": FormatDate,
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
		// safeHTML marks already-rendered markup (post content) as trusted.
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s) // #nosec G203 -- content is produced by the markdown renderer
		},
	}
}
