package config

import (
	"bufio"
	"io"
	"strings"
)

// Section holds the key/value pairs of one [section] in declaration order.
// Values are either a string or a []any whose items are a string or a
// one-entry map[string]string.
type Section struct {
	Name   string
	Keys   []string
	Values map[string]any
}

func newSection(name string) *Section {
	return &Section{Name: name, Values: map[string]any{}}
}

// String returns the scalar value of key, or "" if absent or a list.
func (s *Section) String(key string) string {
	if s == nil {
		return ""
	}
	v, _ := s.Values[key].(string)
	return v
}

// List returns the list value of key, or nil if absent or scalar.
func (s *Section) List(key string) []any {
	if s == nil {
		return nil
	}
	v, _ := s.Values[key].([]any)
	return v
}

func (s *Section) set(key string, value any) {
	if _, exists := s.Values[key]; !exists {
		s.Keys = append(s.Keys, key)
	}
	s.Values[key] = value
}

func (s *Section) appendItem(key string, item any) {
	switch cur := s.Values[key].(type) {
	case []any:
		s.Values[key] = append(cur, item)
	default:
		s.set(key, []any{item})
	}
}

// Sections is the raw parse result: section name to its entries.
type Sections map[string]*Section

// Get returns the named section, or nil.
func (s Sections) Get(name string) *Section {
	return s[name]
}

// Parse reads the sectioned key/value format.
//
//	[section]           opens a section
//	key = value         assigns a scalar
//	key = - item        appends item to the list under key
//	- item              appends to the list under the previous key
//	#key = value        comment
//
// List items of the form "label: value" become map[string]string{label: value}.
// Blank lines and lines outside any section are ignored.
func Parse(r io.Reader) (Sections, error) {
	sections := Sections{}
	var current *Section
	lastKey := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSpace(line[1 : len(line)-1])
			current = sections[name]
			if current == nil {
				current = newSection(name)
				sections[name] = current
			}
			lastKey = ""
			continue
		}
		if current == nil || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, hasEq := strings.Cut(line, "=")
		if !hasEq {
			if item, ok := listItem(line); ok && lastKey != "" {
				if _, scalar := current.Values[lastKey].(string); !scalar || current.String(lastKey) == "" {
					current.appendItem(lastKey, item)
				}
			}
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || strings.HasPrefix(key, "#") {
			continue
		}
		lastKey = key
		if item, ok := listItem(value); ok {
			current.appendItem(key, item)
			continue
		}
		current.set(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sections, nil
}

func listItem(s string) (any, bool) {
	if !strings.HasPrefix(s, "- ") && s != "-" {
		return nil, false
	}
	item := strings.TrimSpace(strings.TrimPrefix(s, "-"))
	if label, value, ok := strings.Cut(item, ":"); ok {
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		// "https://..." stays a bare string.
		if label != "" && !strings.HasPrefix(value, "//") {
			return map[string]string{label: value}, true
		}
	}
	return item, true
}
