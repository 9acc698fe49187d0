package rules

import (
	"fmt"

	"github.com/dgallion1/contentcheck/internal/config"
	"github.com/dgallion1/contentcheck/internal/doctree"
)

// DefaultRequiredFrontmatter lists the keys each format must carry when no
// override is configured. Built HTML has no frontmatter to require.
var DefaultRequiredFrontmatter = map[doctree.Format][]string{
	doctree.FormatMarkdown: {"lastUpdatedOn", "tags"},
	doctree.FormatHTML:     nil,
}

// Default returns the rule list in report order, configured from cfg.
func Default(cfg config.Config) []Rule {
	required := make(map[doctree.Format][]string, len(DefaultRequiredFrontmatter))
	for f, keys := range DefaultRequiredFrontmatter {
		required[f] = keys
	}
	if len(cfg.RequiredFrontmatter) > 0 {
		required[cfg.Format] = cfg.RequiredFrontmatter
	}

	return []Rule{
		HeadingStructure{},
		RequiredFrontmatter{Keys: required},
		InternalLinks{BasePath: cfg.BasePath, Ignore: cfg.IgnoreLinks},
		ImageAlt{},
		OrderingCompleteness{},
		AnchorLinks{BasePath: cfg.BasePath, Ignore: cfg.IgnoreLinks},
	}
}

// Select narrows rules to the ids in only (all when empty) minus those in
// skip, keeping the original order. Unknown ids are an error.
func Select(all []Rule, only, skip []string) ([]Rule, error) {
	known := make(map[string]bool, len(all))
	for _, r := range all {
		known[r.ID()] = true
	}
	want := map[string]bool{}
	for _, id := range only {
		if !known[id] {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		want[id] = true
	}
	drop := map[string]bool{}
	for _, id := range skip {
		if !known[id] {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		drop[id] = true
	}

	var out []Rule
	for _, r := range all {
		if len(want) > 0 && !want[r.ID()] {
			continue
		}
		if drop[r.ID()] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
