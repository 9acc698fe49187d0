package parser

import (
	"fmt"

	"github.com/dgallion1/contentcheck/internal/doctree"
)

// Extractor turns a document into its structural summary. Implementations
// fill headings, links, images, anchors and frontmatter; Extract fills the
// identity fields.
type Extractor interface {
	Extract(doc doctree.Document) (*doctree.Summary, error)
}

// ExtractionError marks a document whose structure could not be read. It is
// reported against that document and does not stop the run.
type ExtractionError struct {
	Path string
	Line int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ForFormat returns the extractor for a document format.
func ForFormat(f doctree.Format) (Extractor, error) {
	switch f {
	case doctree.FormatMarkdown:
		return &MarkdownParser{}, nil
	case doctree.FormatHTML:
		return &HTMLParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %q", f)
	}
}

// Extract produces exactly one summary for a document, or an error. Errors
// from the format parsers are always *ExtractionError.
func Extract(doc doctree.Document) (*doctree.Summary, error) {
	p, err := ForFormat(doc.Format)
	if err != nil {
		return nil, &ExtractionError{Path: doc.Path, Err: err}
	}
	sum, err := p.Extract(doc)
	if err != nil {
		return nil, err
	}

	slug := ""
	if doc.Format == doctree.FormatMarkdown {
		slug = sum.StringField("slug")
	}
	sum.SourcePath = doc.Path
	sum.Format = doc.Format
	sum.Route = doctree.RouteFor(doc.Rel, slug)
	sum.Category = doctree.CategoryFor(sum.Route)
	for _, h := range sum.Headings {
		if h.Level == 1 {
			sum.DerivedTitle = h.Text
			break
		}
	}
	if sum.Frontmatter == nil {
		sum.Frontmatter = map[string]any{}
	}
	if sum.Anchors == nil {
		sum.Anchors = map[string]struct{}{}
	}
	return sum, nil
}
