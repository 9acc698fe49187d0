package doctree

import (
	"fmt"
	"net/url"
	"strings"
)

// Severity classifies a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rank orders severities for reporting; errors sort first.
func (s Severity) Rank() int {
	if s == SeverityError {
		return 0
	}
	return 1
}

// Rule ids for findings produced outside a registered rule.
const (
	RuleExtractionError      = "extraction-error"
	RuleRuleError            = "rule-error"
	RuleDuplicateRoute       = "duplicate-route"
	RuleOrderingCompleteness = "ordering-completeness"
)

// Finding is one reported rule violation.
type Finding struct {
	FilePath string   `json:"file" yaml:"file"`
	RuleID   string   `json:"rule_id" yaml:"rule_id"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
	Line     int      `json:"line,omitempty" yaml:"line,omitempty"`
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d: [%s] %s: %s", f.FilePath, f.Line, f.Severity, f.RuleID, f.Message)
	}
	return fmt.Sprintf("%s: [%s] %s: %s", f.FilePath, f.Severity, f.RuleID, f.Message)
}

// LinkKind is derived from the shape of an href.
type LinkKind string

const (
	LinkInternal LinkKind = "internal"
	LinkExternal LinkKind = "external"
	LinkAnchor   LinkKind = "anchor"
)

// ClassifyHref derives the LinkKind of an href.
func ClassifyHref(href string) LinkKind {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "#") {
		return LinkAnchor
	}
	if strings.HasPrefix(href, "//") {
		return LinkExternal
	}
	if u, err := url.Parse(href); err == nil && u.Scheme != "" {
		return LinkExternal
	}
	// Unparseable hrefs with a scheme-like prefix are still not site paths.
	if i := strings.Index(href, ":"); i > 0 && !strings.ContainsAny(href[:i], "/?#") {
		return LinkExternal
	}
	return LinkInternal
}
