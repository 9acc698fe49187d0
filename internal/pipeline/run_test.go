package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/contentcheck/internal/config"
	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/dgallion1/contentcheck/internal/loader"
	"github.com/dgallion1/contentcheck/internal/report"
)

const validFront = "---\nlastUpdatedOn: 2024-01-01\ntags: [go]\n---\n"

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testConfig(roots ...string) config.Config {
	return config.Config{
		Roots:        roots,
		Format:       doctree.FormatMarkdown,
		ReportFormat: config.ReportText,
		Workers:      4,
		IgnoreLinks:  config.DefaultIgnoreLinks,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func execute(t *testing.T, cfg config.Config) *result {
	t.Helper()
	res, err := NewRun(cfg, testLogger()).execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	return res
}

func TestRun_CleanTree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.md":     validFront + "# Home\n\nSee [the post](/blog/a) and [about](about.md).\n",
		"about.md":     validFront + "# About\n\n![Me](/img/me.png)\n",
		"blog/a.md":    validFront + "# A\n\n## Setup\n\nBack [home](/#top) or [setup](#setup).\n",
		"notes.txt":    "not content",
		".git/x.md":    "# hidden",
		"blog/draft.x": "ignored",
	})
	res := execute(t, testConfig(root))
	if len(res.report.Findings) != 0 {
		t.Fatalf("expected no findings, got %+v", res.report.Findings)
	}
	if res.report.Summary.Documents != 3 {
		t.Errorf("expected 3 documents, got %d", res.report.Summary.Documents)
	}
	if res.report.Failed(true) {
		t.Error("expected clean run to pass")
	}
}

func TestRun_Scenario_TwoH1(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.md": validFront + "# First\n\ntext\n\n# Second\n",
	})
	rep := execute(t, testConfig(root)).report
	if len(rep.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", rep.Findings)
	}
	f := rep.Findings[0]
	if f.RuleID != "heading-structure" || f.Severity != doctree.SeverityError {
		t.Errorf("unexpected finding %+v", f)
	}
	if f.Line != 9 {
		t.Errorf("expected finding on the second H1 (line 9), got %d", f.Line)
	}
}

func TestRun_Scenario_MissingLinkTarget(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.md": validFront + "# A\n\nGo to [b](/b).\n",
		"c.md": validFront + "# C\n",
	})
	rep := execute(t, testConfig(root)).report
	if len(rep.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", rep.Findings)
	}
	f := rep.Findings[0]
	if f.RuleID != "internal-link-resolution" || f.Severity != doctree.SeverityError {
		t.Errorf("unexpected finding %+v", f)
	}
	if f.FilePath != filepath.Join(root, "a.md") {
		t.Errorf("expected finding on a.md, got %s", f.FilePath)
	}
	if !rep.Failed(false) {
		t.Error("expected run to fail")
	}
}

func TestRun_Scenario_ImageWithoutAlt(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.md": validFront + "# A\n\n<img src=\"/img/x.png\">\n",
	})
	rep := execute(t, testConfig(root)).report
	if len(rep.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", rep.Findings)
	}
	f := rep.Findings[0]
	if f.RuleID != "image-accessibility" || f.Severity != doctree.SeverityWarning {
		t.Errorf("unexpected finding %+v", f)
	}
	if rep.Failed(false) {
		t.Error("a warning alone must not fail the run")
	}
	if !rep.Failed(true) {
		t.Error("a warning must fail a strict run")
	}
}

func TestRun_Scenario_OrderingMissingEntry(t *testing.T) {
	root := writeTree(t, map[string]string{
		"foo/a.md": validFront + "# A\n",
	})
	ordering := filepath.Join(t.TempDir(), "order.yaml")
	if err := os.WriteFile(ordering, []byte("foo: [a, b]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(root)
	cfg.OrderingFile = ordering

	rep := execute(t, cfg).report
	if len(rep.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", rep.Findings)
	}
	f := rep.Findings[0]
	if f.RuleID != "ordering-completeness" || f.Severity != doctree.SeverityError {
		t.Errorf("unexpected finding %+v", f)
	}
	if !strings.Contains(f.Message, `"b"`) {
		t.Errorf("expected finding to reference b, got %q", f.Message)
	}
}

func TestRun_UnlistedDocumentInOrderedCategory(t *testing.T) {
	root := writeTree(t, map[string]string{
		"foo/a.md": validFront + "# A\n",
		"foo/c.md": validFront + "# C\n",
		"bar/x.md": validFront + "# X\n",
	})
	ordering := filepath.Join(t.TempDir(), "order.yaml")
	if err := os.WriteFile(ordering, []byte("foo:\n  - a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(root)
	cfg.OrderingFile = ordering

	rep := execute(t, cfg).report
	if len(rep.Findings) != 1 || rep.Findings[0].FilePath != filepath.Join(root, "foo", "c.md") {
		t.Fatalf("expected one finding on foo/c.md, got %+v", rep.Findings)
	}
}

func TestRun_Isolation(t *testing.T) {
	base := map[string]string{
		"a.md": validFront + "# A\n\n# A again\n",
		"b.md": validFront + "# B\n\n![](/img/b.png)\n",
	}
	withBad := map[string]string{"broken.md": "---\ntitle: [unclosed\n---\n# Broken\n"}
	for k, v := range base {
		withBad[k] = v
	}

	clean := execute(t, testConfig(writeTree(t, base))).report
	rootBad := writeTree(t, withBad)
	dirty := execute(t, testConfig(rootBad)).report

	var extraction []doctree.Finding
	var others []string
	for _, f := range dirty.Findings {
		if f.FilePath == filepath.Join(rootBad, "broken.md") {
			extraction = append(extraction, f)
			continue
		}
		others = append(others, filepath.Base(f.FilePath)+"|"+f.RuleID+"|"+f.Message)
	}
	if len(extraction) != 1 || extraction[0].RuleID != doctree.RuleExtractionError || extraction[0].Severity != doctree.SeverityError {
		t.Fatalf("expected exactly one extraction-error for broken.md, got %+v", extraction)
	}

	var want []string
	for _, f := range clean.Findings {
		want = append(want, filepath.Base(f.FilePath)+"|"+f.RuleID+"|"+f.Message)
	}
	if !reflect.DeepEqual(others, want) {
		t.Errorf("malformed document changed other findings:\n got %v\nwant %v", others, want)
	}
	if dirty.Summary.Documents != 3 {
		t.Errorf("expected the broken document to be counted, got %d", dirty.Summary.Documents)
	}
}

func TestRun_Idempotent(t *testing.T) {
	files := map[string]string{}
	for i := range 20 {
		files[fmt.Sprintf("blog/p%02d.md", i)] = validFront + fmt.Sprintf("# P%d\n\n[next](/blog/p%02d)\n\n![](/x%d.png)\n", i, i+1, i)
	}
	root := writeTree(t, files)

	first := execute(t, testConfig(root)).report
	second := execute(t, testConfig(root)).report
	if !reflect.DeepEqual(first.Findings, second.Findings) {
		t.Error("expected identical findings across runs")
	}

	serial := testConfig(root)
	serial.Workers = 1
	third := execute(t, serial).report
	if !reflect.DeepEqual(first.Findings, third.Findings) {
		t.Error("expected worker count not to change findings")
	}
	// p19 links to the missing p20; every page has an image without alt.
	if first.Summary.Errors != 1 || first.Summary.Warnings != 20 {
		t.Errorf("unexpected summary %+v", first.Summary)
	}
}

func TestRun_KnownPathsMatchExtractedDocuments(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.md":        validFront + "# Home\n",
		"blog/a.md":       validFront + "# A\n",
		"blog/b/index.md": validFront + "# B\n",
		"blog/bad.md":     "---\nunterminated\n",
		"guides/slug.md":  "---\nslug: renamed\nlastUpdatedOn: x\ntags: [a]\n---\n# S\n",
	})
	res := execute(t, testConfig(root))

	var routes []string
	for _, s := range res.summaries {
		routes = append(routes, s.Route)
	}
	if len(routes) != 4 {
		t.Fatalf("expected 4 extracted documents, got %v", routes)
	}
	known := res.index.KnownPaths()
	want := []string{"/", "/blog/a", "/blog/b", "/guides/renamed"}
	if !reflect.DeepEqual(known, want) {
		t.Errorf("expected known paths %v, got %v", want, known)
	}
	for _, r := range routes {
		if !res.index.HasPath(r) {
			t.Errorf("extracted route %s missing from index", r)
		}
	}
}

func TestRun_MultipleRootsAndHTML(t *testing.T) {
	a := writeTree(t, map[string]string{
		"index.html":      `<html><body><h1>Home</h1><a href="/docs/guide/">guide</a></body></html>`,
		"ignored.md":      "# not html",
		"assets/site.css": "body{}",
	})
	b := writeTree(t, map[string]string{
		"docs/guide/index.html": `<html><body><h1>Guide</h1><img src="/docs/shot.png" alt=""><a href="/nowhere.html">x</a></body></html>`,
	})
	cfg := testConfig(a, b)
	cfg.Format = doctree.FormatHTML

	rep := execute(t, cfg).report
	if rep.Summary.Documents != 2 {
		t.Fatalf("expected 2 html documents, got %d", rep.Summary.Documents)
	}
	if len(rep.Findings) != 1 || rep.Findings[0].RuleID != "internal-link-resolution" {
		t.Fatalf("expected one broken link, got %+v", rep.Findings)
	}
}

func TestRun_RuleSelection(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "# A\n\n# B\n"})
	cfg := testConfig(root)
	cfg.SkipRules = []string{"heading-structure"}
	rep := execute(t, cfg).report
	for _, f := range rep.Findings {
		if f.RuleID == "heading-structure" {
			t.Errorf("skipped rule still reported: %+v", f)
		}
	}
	if len(rep.Findings) != 2 {
		t.Errorf("expected the two frontmatter findings, got %+v", rep.Findings)
	}

	cfg.SkipRules = []string{"no-such-rule"}
	if _, err := NewRun(cfg, testLogger()).Execute(context.Background()); err == nil {
		t.Error("expected unknown rule to be fatal")
	}
}

func TestRun_FatalErrors(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": validFront + "# A\n"})

	missing := testConfig(root, filepath.Join(root, "nope"))
	rep, err := NewRun(missing, testLogger()).Execute(context.Background())
	if !errors.Is(err, loader.ErrRootNotFound) || rep != nil {
		t.Errorf("expected ErrRootNotFound and no report, got %v, %v", rep, err)
	}

	badOrdering := testConfig(root)
	badOrdering.OrderingFile = filepath.Join(root, "missing.yaml")
	if rep, err := NewRun(badOrdering, testLogger()).Execute(context.Background()); err == nil || rep != nil {
		t.Errorf("expected fatal ordering error, got %v, %v", rep, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if rep, err := NewRun(testConfig(root), testLogger()).Execute(ctx); !errors.Is(err, context.Canceled) || rep != nil {
		t.Errorf("expected cancellation without report, got %v, %v", rep, err)
	}
}

func TestRun_ReportRendersSummaryWhenEmpty(t *testing.T) {
	root := writeTree(t, map[string]string{})
	rep, err := NewRun(testConfig(root), testLogger()).Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err := report.Render(&sb, rep, "text"); err != nil {
		t.Fatal(err)
	}
	if sb.String() != "0 documents checked: 0 errors, 0 warnings\n" {
		t.Errorf("unexpected output %q", sb.String())
	}
}
