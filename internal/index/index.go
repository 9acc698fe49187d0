package index

import (
	"fmt"
	"sort"

	"github.com/dgallion1/contentcheck/internal/doctree"
)

// orderingFallbackPath names the ordering source when findings are raised
// against declarations that did not come from a file.
const orderingFallbackPath = "<ordering>"

// Index is the cross-document view of one run. It is built once, after all
// documents are extracted, and is read-only afterwards so rules may share it
// without locking.
type Index struct {
	docs         map[string]*doctree.Summary
	declared     map[string]map[string]struct{}
	orderingPath string
}

// Build indexes every successfully extracted summary. Summaries must be in
// scan order so duplicate-route findings land on the later document.
// Ordering entries that name no scanned document are reported against the
// ordering file; they never fail the build.
func Build(summaries []*doctree.Summary, ordering Ordering, orderingPath string) (*Index, []doctree.Finding) {
	if orderingPath == "" {
		orderingPath = orderingFallbackPath
	}
	idx := &Index{
		docs:         make(map[string]*doctree.Summary, len(summaries)),
		declared:     make(map[string]map[string]struct{}, len(ordering)),
		orderingPath: orderingPath,
	}

	var findings []doctree.Finding
	for _, s := range summaries {
		if s == nil {
			continue
		}
		if first, ok := idx.docs[s.Route]; ok {
			findings = append(findings, doctree.Finding{
				FilePath: s.SourcePath,
				RuleID:   doctree.RuleDuplicateRoute,
				Severity: doctree.SeverityError,
				Message:  fmt.Sprintf("route %s is also produced by %s", s.Route, first.SourcePath),
			})
			continue
		}
		idx.docs[s.Route] = s
	}

	// Entries present per category, for stale-declaration checks.
	present := map[string]map[string]struct{}{}
	for route, s := range idx.docs {
		if s.Category == "" {
			continue
		}
		if present[s.Category] == nil {
			present[s.Category] = map[string]struct{}{}
		}
		present[s.Category][doctree.EntryFor(route)] = struct{}{}
	}

	cats := make([]string, 0, len(ordering))
	for cat := range ordering {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	for _, cat := range cats {
		set := make(map[string]struct{}, len(ordering[cat]))
		for _, raw := range ordering[cat] {
			entry := normalizeEntry(cat, raw)
			set[entry] = struct{}{}
			if _, ok := present[cat][entry]; !ok {
				findings = append(findings, doctree.Finding{
					FilePath: orderingPath,
					RuleID:   doctree.RuleOrderingCompleteness,
					Severity: doctree.SeverityError,
					Message:  fmt.Sprintf("category %q lists %q but no scanned document has route /%s/%s", cat, raw, cat, entry),
				})
			}
		}
		idx.declared[cat] = set
	}

	return idx, findings
}

// HasPath reports whether a route belongs to a scanned document.
func (idx *Index) HasPath(route string) bool {
	_, ok := idx.docs[route]
	return ok
}

// Lookup returns the summary that owns a route.
func (idx *Index) Lookup(route string) (*doctree.Summary, bool) {
	s, ok := idx.docs[route]
	return s, ok
}

// KnownPaths returns every indexed route, sorted.
func (idx *Index) KnownPaths() []string {
	out := make([]string, 0, len(idx.docs))
	for r := range idx.docs {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Declared reports whether the ordering declares a category at all.
func (idx *Index) Declared(category string) bool {
	_, ok := idx.declared[category]
	return ok
}

// IsDeclared reports whether an entry is listed under its category.
func (idx *Index) IsDeclared(category, entry string) bool {
	_, ok := idx.declared[category][entry]
	return ok
}

// HasAnchor reports whether the document at route defines a fragment id.
func (idx *Index) HasAnchor(route, id string) bool {
	s, ok := idx.docs[route]
	return ok && s.HasAnchor(id)
}

// OrderingPath is the file ordering findings are reported against.
func (idx *Index) OrderingPath() string { return idx.orderingPath }

func (idx *Index) Len() int { return len(idx.docs) }
