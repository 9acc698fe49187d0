package rules

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/dgallion1/contentcheck/internal/index"
)

// Rule checks one document. Rules that report NeedsIndex false must not
// touch the index; the engine passes them nil.
type Rule interface {
	ID() string
	Description() string
	NeedsIndex() bool
	Evaluate(sum *doctree.Summary, idx *index.Index) ([]doctree.Finding, error)
}

var errNoIndex = errors.New("rule needs the cross-document index but none was built")

// Engine runs an ordered list of rules over every summary.
type Engine struct {
	rules []Rule
	log   *slog.Logger
}

func NewEngine(log *slog.Logger, rules ...Rule) *Engine {
	return &Engine{rules: rules, log: log}
}

// Register appends a rule. Registration order is report order.
func (e *Engine) Register(r Rule) {
	e.rules = append(e.rules, r)
}

func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs every rule against every summary, in summary order then rule
// order. A rule that errors or panics yields one rule-error finding for that
// document; the remaining rules and documents still run.
func (e *Engine) Evaluate(summaries []*doctree.Summary, idx *index.Index) []doctree.Finding {
	var out []doctree.Finding
	for _, sum := range summaries {
		for _, r := range e.rules {
			out = append(out, e.evaluateOne(r, sum, idx)...)
		}
	}
	return out
}

func (e *Engine) evaluateOne(r Rule, sum *doctree.Summary, idx *index.Index) (findings []doctree.Finding) {
	defer func() {
		if p := recover(); p != nil {
			e.log.Error("rule panicked", "rule", r.ID(), "path", sum.SourcePath, "panic", p)
			findings = []doctree.Finding{ruleError(r, sum, fmt.Errorf("panic: %v", p))}
		}
	}()

	var ruleIdx *index.Index
	if r.NeedsIndex() {
		if idx == nil {
			return []doctree.Finding{ruleError(r, sum, errNoIndex)}
		}
		ruleIdx = idx
	}

	got, err := r.Evaluate(sum, ruleIdx)
	if err != nil {
		e.log.Warn("rule failed", "rule", r.ID(), "path", sum.SourcePath, "error", err)
		return []doctree.Finding{ruleError(r, sum, err)}
	}
	for i := range got {
		if got[i].FilePath == "" {
			got[i].FilePath = sum.SourcePath
		}
		if got[i].RuleID == "" {
			got[i].RuleID = r.ID()
		}
	}
	return got
}

func ruleError(r Rule, sum *doctree.Summary, err error) doctree.Finding {
	return doctree.Finding{
		FilePath: sum.SourcePath,
		RuleID:   doctree.RuleRuleError,
		Severity: doctree.SeverityError,
		Message:  fmt.Sprintf("rule %s failed: %v", r.ID(), err),
	}
}
