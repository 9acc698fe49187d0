package rules

import (
	"fmt"

	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/dgallion1/contentcheck/internal/index"
)

// OrderingCompleteness requires every document in a declared category to be
// listed in the ordering for that category. Categories the ordering does not
// mention are not checked. Declarations naming missing documents are
// reported by the index build under the same rule id.
type OrderingCompleteness struct{}

func (OrderingCompleteness) ID() string { return doctree.RuleOrderingCompleteness }

func (OrderingCompleteness) Description() string {
	return "documents in an ordered category are listed in the ordering file"
}

func (OrderingCompleteness) NeedsIndex() bool { return true }

func (OrderingCompleteness) Evaluate(sum *doctree.Summary, idx *index.Index) ([]doctree.Finding, error) {
	if sum.Category == "" || !idx.Declared(sum.Category) {
		return nil, nil
	}
	entry := doctree.EntryFor(sum.Route)
	if idx.IsDeclared(sum.Category, entry) {
		return nil, nil
	}
	return []doctree.Finding{{
		Severity: doctree.SeverityError,
		Message:  fmt.Sprintf("%q is not listed under category %q in %s", entry, sum.Category, idx.OrderingPath()),
	}}, nil
}
