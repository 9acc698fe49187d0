package doctree

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Format is the source format of a document.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat maps a CLI/env value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want markdown or html)", s)
	}
}

// FormatForFile returns the format for a filename, or "" if the file is not content.
func FormatForFile(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdx":
		return FormatMarkdown
	case ".html", ".htm":
		return FormatHTML
	}
	return ""
}

// Document is one file discovered by the loader.
type Document struct {
	Path    string // Path as found on disk (root joined with Rel)
	Root    string // Scan root the file was found under
	Rel     string // Slash-separated path relative to Root
	Content []byte
	Format  Format
}

// Heading is a heading node in document order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
	ID    string `json:"id,omitempty"`
}

// Link is a hyperlink in document order.
type Link struct {
	Href string   `json:"href"`
	Text string   `json:"text"`
	Kind LinkKind `json:"kind"`
	Line int      `json:"line"`
}

// Image is an image reference in document order.
type Image struct {
	Src        string `json:"src"`
	Alt        string `json:"alt,omitempty"`
	HasAltText bool   `json:"has_alt_text"`
	Line       int    `json:"line"`
}

// Summary is the normalized structure extracted from one document. It is not
// modified after extraction.
type Summary struct {
	SourcePath   string              `json:"source_path"`
	Route        string              `json:"route"`
	Category     string              `json:"category,omitempty"`
	Format       Format              `json:"format"`
	Headings     []Heading           `json:"headings"`
	Frontmatter  map[string]any      `json:"frontmatter"`
	Links        []Link              `json:"links"`
	Images       []Image             `json:"images"`
	Anchors      map[string]struct{} `json:"-"`
	DerivedTitle string              `json:"derived_title,omitempty"`
}

// HasAnchor reports whether the document defines the given fragment id.
func (s *Summary) HasAnchor(id string) bool {
	_, ok := s.Anchors[id]
	return ok
}

// StringField returns a frontmatter value as a trimmed string, or "" if absent
// or not a scalar.
func (s *Summary) StringField(key string) string {
	v, ok := s.Frontmatter[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case time.Time:
		if h, m, sec := t.Clock(); h == 0 && m == 0 && sec == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	case []any, map[string]any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// RouteFor derives a site route from a root-relative path. An optional slug
// replaces the final segment.
func RouteFor(rel, slug string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if rel == "index" {
		rel = ""
	}
	rel = strings.TrimSuffix(rel, "/index")

	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug != "" {
		dir := path.Dir(rel)
		if dir == "." || rel == "" {
			rel = slug
		} else {
			rel = dir + "/" + slug
		}
	}

	rel = strings.Trim(rel, "/")
	return "/" + rel
}

// CategoryFor returns the first route segment for nested routes, "" for
// top-level pages.
func CategoryFor(route string) string {
	trimmed := strings.Trim(route, "/")
	first, rest, found := strings.Cut(trimmed, "/")
	if !found || rest == "" {
		return ""
	}
	return first
}

// EntryFor returns the identifier of a route within its category, e.g.
// "/blog/post" -> "post".
func EntryFor(route string) string {
	trimmed := strings.Trim(route, "/")
	_, rest, found := strings.Cut(trimmed, "/")
	if !found {
		return trimmed
	}
	return rest
}
