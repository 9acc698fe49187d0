package rules

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/dgallion1/contentcheck/internal/index"
)

const (
	InternalLinksID = "internal-link-resolution"
	AnchorLinksID   = "anchor-resolution"
)

// ignored reports whether an href matches one of the ignore globs. Patterns
// are matched against the href path and the resolved route, both without the
// leading slash.
func ignored(patterns []string, hrefPath, route string) bool {
	candidates := []string{
		strings.TrimPrefix(hrefPath, "/"),
		strings.TrimPrefix(route, "/"),
	}
	for _, p := range patterns {
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if ok, _ := doublestar.Match(p, c); ok {
				return true
			}
		}
	}
	return false
}

// InternalLinks requires every internal link to resolve to a scanned
// document.
type InternalLinks struct {
	BasePath string
	Ignore   []string
}

func (InternalLinks) ID() string { return InternalLinksID }

func (InternalLinks) Description() string {
	return "internal links resolve to a scanned document"
}

func (InternalLinks) NeedsIndex() bool { return true }

func (r InternalLinks) Evaluate(sum *doctree.Summary, idx *index.Index) ([]doctree.Finding, error) {
	var out []doctree.Finding
	for _, l := range sum.Links {
		if l.Kind != doctree.LinkInternal {
			continue
		}
		p, _ := index.SplitHref(l.Href)
		if p == "" {
			continue
		}
		route, _ := index.ResolveHref(sum, l.Href, r.BasePath)
		if ignored(r.Ignore, p, route) {
			continue
		}
		if idx.HasPath(route) {
			continue
		}
		out = append(out, doctree.Finding{
			Severity: doctree.SeverityError,
			Message:  fmt.Sprintf("link %q points to %s, which is not a known page", l.Href, route),
			Line:     l.Line,
		})
	}
	return out, nil
}

// AnchorLinks warns when a fragment names no id on its target page. Links
// whose page is missing are left to InternalLinks.
type AnchorLinks struct {
	BasePath string
	Ignore   []string
}

func (AnchorLinks) ID() string { return AnchorLinksID }

func (AnchorLinks) Description() string {
	return "link fragments match an id on the target page"
}

func (AnchorLinks) NeedsIndex() bool { return true }

func (r AnchorLinks) Evaluate(sum *doctree.Summary, idx *index.Index) ([]doctree.Finding, error) {
	var out []doctree.Finding
	for _, l := range sum.Links {
		if l.Kind == doctree.LinkExternal {
			continue
		}
		p, fragment := index.SplitHref(l.Href)
		// Browsers scroll to the top for an empty or "top" fragment.
		if fragment == "" || strings.EqualFold(fragment, "top") {
			continue
		}

		if l.Kind == doctree.LinkAnchor || p == "" {
			if !sum.HasAnchor(fragment) {
				out = append(out, doctree.Finding{
					Severity: doctree.SeverityWarning,
					Message:  fmt.Sprintf("anchor %q matches no id on this page", "#"+fragment),
					Line:     l.Line,
				})
			}
			continue
		}

		route, _ := index.ResolveHref(sum, l.Href, r.BasePath)
		if ignored(r.Ignore, p, route) || !idx.HasPath(route) {
			continue
		}
		if !idx.HasAnchor(route, fragment) {
			out = append(out, doctree.Finding{
				Severity: doctree.SeverityWarning,
				Message:  fmt.Sprintf("link %q names anchor %q, which %s does not define", l.Href, "#"+fragment, route),
				Line:     l.Line,
			})
		}
	}
	return out, nil
}
