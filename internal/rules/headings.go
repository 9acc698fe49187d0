package rules

import (
	"fmt"

	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/dgallion1/contentcheck/internal/index"
)

const HeadingStructureID = "heading-structure"

// HeadingStructure requires exactly one H1, non-empty headings, and no
// skipped levels when going deeper.
//
// A Markdown document without a body H1 but with a frontmatter title counts
// the title as its H1, since the page layout renders it.
type HeadingStructure struct{}

func (HeadingStructure) ID() string { return HeadingStructureID }

func (HeadingStructure) Description() string {
	return "exactly one level-1 heading, no skipped levels, no empty headings"
}

func (HeadingStructure) NeedsIndex() bool { return false }

func (HeadingStructure) Evaluate(sum *doctree.Summary, _ *index.Index) ([]doctree.Finding, error) {
	var out []doctree.Finding

	var h1s []doctree.Heading
	for _, h := range sum.Headings {
		if h.Level == 1 {
			h1s = append(h1s, h)
		}
	}
	titleH1 := len(h1s) == 0 && sum.Format == doctree.FormatMarkdown && sum.StringField("title") != ""

	switch {
	case len(h1s) == 0 && !titleH1:
		out = append(out, doctree.Finding{
			Severity: doctree.SeverityError,
			Message:  "document has no level-1 heading",
		})
	case len(h1s) > 1:
		out = append(out, doctree.Finding{
			Severity: doctree.SeverityError,
			Message:  fmt.Sprintf("document has %d level-1 headings, expected exactly one", len(h1s)),
			Line:     h1s[1].Line,
		})
	}

	prev := 0
	if titleH1 {
		prev = 1
	}
	for _, h := range sum.Headings {
		if h.Text == "" {
			out = append(out, doctree.Finding{
				Severity: doctree.SeverityError,
				Message:  fmt.Sprintf("H%d heading is empty", h.Level),
				Line:     h.Line,
			})
		}
		if prev > 0 && h.Level > prev+1 {
			out = append(out, doctree.Finding{
				Severity: doctree.SeverityWarning,
				Message:  fmt.Sprintf("heading level skips from H%d to H%d", prev, h.Level),
				Line:     h.Line,
			})
		}
		prev = h.Level
	}
	return out, nil
}
