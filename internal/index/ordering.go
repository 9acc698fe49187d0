package index

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ordering maps a category to the identifiers of its entries in display order.
//
//	blog:
//	  - first-post
//	  - second-post
//	guides: [install, configure]
type Ordering map[string][]string

// LoadOrdering reads an ordering file. An empty path means no declarations.
// Any read or decode failure is fatal to the run.
func LoadOrdering(path string) (Ordering, error) {
	if path == "" {
		return Ordering{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ordering file: %w", err)
	}
	return ParseOrdering(data)
}

// ParseOrdering decodes ordering YAML. Category keys and entries are trimmed;
// blank entries are dropped.
func ParseOrdering(data []byte) (Ordering, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ordering file: %w", err)
	}
	out := make(Ordering, len(raw))
	for cat, entries := range raw {
		cat = strings.Trim(strings.TrimSpace(cat), "/")
		if cat == "" {
			return nil, fmt.Errorf("parse ordering file: empty category key")
		}
		list := make([]string, 0, len(entries))
		for _, e := range entries {
			if e = strings.TrimSpace(e); e != "" {
				list = append(list, e)
			}
		}
		out[cat] = append(out[cat], list...)
	}
	return out, nil
}

// normalizeEntry reduces an ordering entry to an identifier within its
// category. "post", "/blog/post/", "blog/post.md" all become "post".
func normalizeEntry(category, entry string) string {
	e := strings.Trim(strings.TrimSpace(entry), "/")
	e = trimPageSuffix(e)
	e = strings.TrimPrefix(e, category+"/")
	return strings.Trim(e, "/")
}
