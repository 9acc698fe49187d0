package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/contentcheck/internal/doctree"
	"gopkg.in/yaml.v3"
)

func sampleFindings() []doctree.Finding {
	return []doctree.Finding{
		{FilePath: "c/b.md", RuleID: "image-accessibility", Severity: doctree.SeverityWarning, Message: "image \"x.png\" has no alt text", Line: 3},
		{FilePath: "c/a.md", RuleID: "internal-link-resolution", Severity: doctree.SeverityError, Message: "link", Line: 9},
		{FilePath: "c/a.md", RuleID: "image-accessibility", Severity: doctree.SeverityWarning, Message: "img", Line: 2},
		{FilePath: "c/a.md", RuleID: "heading-structure", Severity: doctree.SeverityError, Message: "h1", Line: 9},
		{FilePath: "c/a.md", RuleID: "heading-structure", Severity: doctree.SeverityError, Message: "no h1"},
	}
}

func TestNew_SortOrder(t *testing.T) {
	in := sampleFindings()
	r := New(in, 4)

	var got []string
	for _, f := range r.Findings {
		got = append(got, f.FilePath+"|"+f.RuleID+"|"+f.Message)
	}
	want := []string{
		"c/a.md|heading-structure|no h1",
		"c/a.md|heading-structure|h1",
		"c/a.md|internal-link-resolution|link",
		"c/a.md|image-accessibility|img",
		"c/b.md|image-accessibility|image \"x.png\" has no alt text",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("unexpected order:\n%s", strings.Join(got, "\n"))
	}
	if in[0].FilePath != "c/b.md" {
		t.Error("New must not reorder its input")
	}
}

func TestNew_Summary(t *testing.T) {
	r := New(sampleFindings(), 4)
	s := r.Summary
	if s.Documents != 4 || s.Errors != 3 || s.Warnings != 2 || s.Files != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
	if len(s.ByRule) != 3 || s.ByRule[0].RuleID != "heading-structure" || s.ByRule[0].Errors != 2 {
		t.Errorf("unexpected per-rule counts %+v", s.ByRule)
	}
	want := "4 documents checked: 3 errors, 2 warnings (heading-structure: 2 errors; image-accessibility: 2 warnings; internal-link-resolution: 1 error)"
	if s.Line() != want {
		t.Errorf("unexpected summary line:\n got %q\nwant %q", s.Line(), want)
	}
}

func TestFailed(t *testing.T) {
	warnOnly := New([]doctree.Finding{{FilePath: "a", RuleID: "r", Severity: doctree.SeverityWarning}}, 1)
	if warnOnly.Failed(false) {
		t.Error("warnings alone must not fail a run")
	}
	if !warnOnly.Failed(true) {
		t.Error("warnings must fail a strict run")
	}
	withErr := New([]doctree.Finding{{FilePath: "a", RuleID: "r", Severity: doctree.SeverityError}}, 1)
	if !withErr.Failed(false) {
		t.Error("errors must fail a run")
	}
	if New(nil, 0).Failed(true) {
		t.Error("an empty report must pass")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := New(sampleFindings(), 4).WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "c/a.md\n  [error] heading-structure: no h1\n  [error] heading-structure: h1 (line 9)\n") {
		t.Errorf("unexpected text output:\n%s", out)
	}
	if !strings.Contains(out, "\nc/b.md\n  [warning] image-accessibility:") {
		t.Errorf("expected second file group:\n%s", out)
	}
	if !strings.HasSuffix(out, "internal-link-resolution: 1 error)\n") {
		t.Errorf("expected summary line last:\n%s", out)
	}
}

func TestWriteText_EmptyStillSummarizes(t *testing.T) {
	var buf bytes.Buffer
	if err := New(nil, 12).WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "12 documents checked: 0 errors, 0 warnings\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, New(sampleFindings(), 4), "jsonl"); err != nil {
		t.Fatal(err)
	}
	sc := bufio.NewScanner(&buf)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 6 {
		t.Fatalf("expected 5 findings and a summary, got %d lines", len(lines))
	}
	var f doctree.Finding
	if err := json.Unmarshal([]byte(lines[0]), &f); err != nil {
		t.Fatal(err)
	}
	if f.FilePath != "c/a.md" || f.Severity != doctree.SeverityError || f.RuleID != "heading-structure" {
		t.Errorf("unexpected first finding %+v", f)
	}
	var tail struct {
		Summary Summary `json:"summary"`
	}
	if err := json.Unmarshal([]byte(lines[5]), &tail); err != nil {
		t.Fatal(err)
	}
	if tail.Summary.Errors != 3 || tail.Summary.Documents != 4 {
		t.Errorf("unexpected summary %+v", tail.Summary)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, New(sampleFindings(), 4), "yaml"); err != nil {
		t.Fatal(err)
	}
	var got Report
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, buf.String())
	}
	if len(got.Findings) != 5 || got.Summary.Warnings != 2 {
		t.Errorf("unexpected decoded report %+v", got)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if err := Render(&bytes.Buffer{}, New(nil, 0), "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
