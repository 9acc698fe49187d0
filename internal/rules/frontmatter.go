package rules

import (
	"fmt"
	"strings"

	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/dgallion1/contentcheck/internal/index"
)

const RequiredFrontmatterID = "required-frontmatter"

// RequiredFrontmatter checks that each key listed for a document's format is
// present and non-empty. Other keys are ignored.
type RequiredFrontmatter struct {
	Keys map[doctree.Format][]string
}

func (RequiredFrontmatter) ID() string { return RequiredFrontmatterID }

func (RequiredFrontmatter) Description() string {
	return "required frontmatter keys are present and non-empty"
}

func (RequiredFrontmatter) NeedsIndex() bool { return false }

func (r RequiredFrontmatter) Evaluate(sum *doctree.Summary, _ *index.Index) ([]doctree.Finding, error) {
	var out []doctree.Finding
	for _, key := range r.Keys[sum.Format] {
		v, ok := sum.Frontmatter[key]
		switch {
		case !ok:
			out = append(out, doctree.Finding{
				Severity: doctree.SeverityError,
				Message:  fmt.Sprintf("missing required frontmatter key %q", key),
			})
		case isEmpty(v):
			out = append(out, doctree.Finding{
				Severity: doctree.SeverityError,
				Message:  fmt.Sprintf("frontmatter key %q is empty", key),
			})
		}
	}
	return out, nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
