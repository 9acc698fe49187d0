package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/contentcheck/internal/doctree"
)

// RuleCount is the per-rule tally shown in the summary.
type RuleCount struct {
	RuleID   string `json:"rule_id" yaml:"rule_id"`
	Errors   int    `json:"errors" yaml:"errors"`
	Warnings int    `json:"warnings" yaml:"warnings"`
}

// Summary totals a run. It is rendered even when there are no findings.
type Summary struct {
	Documents int         `json:"documents" yaml:"documents"`
	Files     int         `json:"files_with_findings" yaml:"files_with_findings"`
	Errors    int         `json:"errors" yaml:"errors"`
	Warnings  int         `json:"warnings" yaml:"warnings"`
	ByRule    []RuleCount `json:"by_rule" yaml:"by_rule"`
}

// Report is the complete, display-ordered outcome of one run.
type Report struct {
	Findings []doctree.Finding `json:"findings" yaml:"findings"`
	Summary  Summary           `json:"summary" yaml:"summary"`
}

// New sorts a copy of findings by file, then severity, then line, then rule
// id, then message, and computes the summary. documents is the number of
// documents the run loaded.
func New(findings []doctree.Finding, documents int) *Report {
	sorted := make([]doctree.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Message < b.Message
	})

	sum := Summary{Documents: documents, ByRule: []RuleCount{}}
	byRule := map[string]*RuleCount{}
	files := map[string]bool{}
	for _, f := range sorted {
		files[f.FilePath] = true
		rc := byRule[f.RuleID]
		if rc == nil {
			rc = &RuleCount{RuleID: f.RuleID}
			byRule[f.RuleID] = rc
		}
		if f.Severity == doctree.SeverityError {
			sum.Errors++
			rc.Errors++
		} else {
			sum.Warnings++
			rc.Warnings++
		}
	}
	sum.Files = len(files)
	for _, rc := range byRule {
		sum.ByRule = append(sum.ByRule, *rc)
	}
	sort.Slice(sum.ByRule, func(i, j int) bool { return sum.ByRule[i].RuleID < sum.ByRule[j].RuleID })

	if sorted == nil {
		sorted = []doctree.Finding{}
	}
	return &Report{Findings: sorted, Summary: sum}
}

// Failed reports whether the run should exit non-zero: any error finding,
// or with strict any finding at all.
func (r *Report) Failed(strict bool) bool {
	if r.Summary.Errors > 0 {
		return true
	}
	return strict && r.Summary.Warnings > 0
}

// FileGroup is the findings for one file, in display order.
type FileGroup struct {
	FilePath string
	Findings []doctree.Finding
}

// Groups splits the sorted findings by file.
func (r *Report) Groups() []FileGroup {
	var out []FileGroup
	for _, f := range r.Findings {
		if n := len(out); n > 0 && out[n-1].FilePath == f.FilePath {
			out[n-1].Findings = append(out[n-1].Findings, f)
			continue
		}
		out = append(out, FileGroup{FilePath: f.FilePath, Findings: []doctree.Finding{f}})
	}
	return out
}

// Line is the one-line summary printed after every report.
func (s Summary) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s checked: %s, %s",
		plural(s.Documents, "document"), plural(s.Errors, "error"), plural(s.Warnings, "warning"))
	if len(s.ByRule) > 0 {
		parts := make([]string, 0, len(s.ByRule))
		for _, rc := range s.ByRule {
			var counts []string
			if rc.Errors > 0 {
				counts = append(counts, plural(rc.Errors, "error"))
			}
			if rc.Warnings > 0 {
				counts = append(counts, plural(rc.Warnings, "warning"))
			}
			parts = append(parts, rc.RuleID+": "+strings.Join(counts, ", "))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, "; "))
	}
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
