package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Render writes the report in the named format: text, jsonl or yaml.
func Render(w io.Writer, r *Report, format string) error {
	switch format {
	case "", "text":
		return r.WriteText(w)
	case "jsonl":
		return r.WriteJSONL(w)
	case "yaml":
		return r.WriteYAML(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText renders findings grouped by file for a console.
//
//	content/blog/a.md
//	  [error] heading-structure: document has 2 level-1 headings, expected exactly one (line 9)
//
//	3 documents checked: 1 error, 0 warnings (heading-structure: 1 error)
func (r *Report) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, g := range r.Groups() {
		fmt.Fprintln(bw, g.FilePath)
		for _, f := range g.Findings {
			fmt.Fprintf(bw, "  [%s] %s: %s", f.Severity, f.RuleID, f.Message)
			if f.Line > 0 {
				fmt.Fprintf(bw, " (line %d)", f.Line)
			}
			fmt.Fprintln(bw)
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, r.Summary.Line())
	return bw.Flush()
}

// WriteJSONL writes one JSON object per finding, then a summary object.
func (r *Report) WriteJSONL(w io.Writer) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, f := range r.Findings {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode finding: %w", err)
		}
	}
	if err := enc.Encode(map[string]Summary{"summary": r.Summary}); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return bw.Flush()
}

// WriteYAML writes the whole report as one YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}
