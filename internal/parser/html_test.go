package parser

import (
	"testing"

	"github.com/dgallion1/contentcheck/internal/doctree"
)

func htmlDoc(rel, content string) doctree.Document {
	return doctree.Document{
		Path:    "dist/" + rel,
		Root:    "dist",
		Rel:     rel,
		Content: []byte(content),
		Format:  doctree.FormatHTML,
	}
}

const samplePage = `<!doctype html>
<html lang="en">
<head>
<title>Post Title | Blog</title>
<meta name="description" content="About things">
<meta property="og:title" content="Post Title">
<script>document.write("<h1>not real</h1>")</script>
</head>
<body>
<h1 id="top">Post <em>Title</em></h1>
<p>Read <a href="/blog/other/">the other</a> or <a href="https://example.com">external</a>.</p>
<h2 id="details">Details</h2>
<img src="/img/a.png" alt="Chart">
<img src="/img/b.png">
<img src="/img/spacer.png" alt="">
<a href="#details">back</a>
<a name="legacy"></a>
</body>
</html>
`

func TestHTMLParser_Structure(t *testing.T) {
	sum, err := Extract(htmlDoc("blog/post/index.html", samplePage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sum.Route != "/blog/post" {
		t.Errorf("expected route /blog/post, got %q", sum.Route)
	}
	if sum.Format != doctree.FormatHTML {
		t.Errorf("expected html format, got %q", sum.Format)
	}

	wantHeadings := []doctree.Heading{
		{Level: 1, Text: "Post Title", Line: 10, ID: "top"},
		{Level: 2, Text: "Details", Line: 12, ID: "details"},
	}
	if len(sum.Headings) != len(wantHeadings) {
		t.Fatalf("expected %d headings, got %d: %+v", len(wantHeadings), len(sum.Headings), sum.Headings)
	}
	for i, w := range wantHeadings {
		if sum.Headings[i] != w {
			t.Errorf("heading[%d]: expected %+v, got %+v", i, w, sum.Headings[i])
		}
	}
	if sum.DerivedTitle != "Post Title" {
		t.Errorf("expected derived title from h1, got %q", sum.DerivedTitle)
	}

	wantLinks := []doctree.Link{
		{Href: "/blog/other/", Text: "the other", Kind: doctree.LinkInternal, Line: 11},
		{Href: "https://example.com", Text: "external", Kind: doctree.LinkExternal, Line: 11},
		{Href: "#details", Text: "back", Kind: doctree.LinkAnchor, Line: 16},
	}
	if len(sum.Links) != len(wantLinks) {
		t.Fatalf("expected %d links, got %d: %+v", len(wantLinks), len(sum.Links), sum.Links)
	}
	for i, w := range wantLinks {
		if sum.Links[i] != w {
			t.Errorf("link[%d]: expected %+v, got %+v", i, w, sum.Links[i])
		}
	}

	if len(sum.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(sum.Images))
	}
	if !sum.Images[0].HasAltText || sum.Images[0].Line != 13 {
		t.Errorf("unexpected first image: %+v", sum.Images[0])
	}
	if sum.Images[1].HasAltText {
		t.Errorf("expected missing alt on second image: %+v", sum.Images[1])
	}
	if !sum.Images[2].HasAltText {
		t.Errorf("expected empty alt attribute to count as decorative alt: %+v", sum.Images[2])
	}

	for _, id := range []string{"top", "details", "legacy"} {
		if !sum.HasAnchor(id) {
			t.Errorf("expected anchor %q", id)
		}
	}
}

func TestHTMLParser_PageMeta(t *testing.T) {
	sum, err := Extract(htmlDoc("blog/post/index.html", samplePage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		"title":       "Post Title | Blog",
		"lang":        "en",
		"description": "About things",
		"og:title":    "Post Title",
	}
	for k, v := range want {
		if got := sum.StringField(k); got != v {
			t.Errorf("meta %q: expected %q, got %q", k, v, got)
		}
	}
}

func TestHTMLParser_NoHeadings(t *testing.T) {
	sum, err := Extract(htmlDoc("plain.html", "<p>Just text</p>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sum.Headings) != 0 {
		t.Errorf("expected no headings, got %d", len(sum.Headings))
	}
	if sum.DerivedTitle != "" {
		t.Errorf("expected empty derived title, got %q", sum.DerivedTitle)
	}
	if sum.Route != "/plain" {
		t.Errorf("expected route /plain, got %q", sum.Route)
	}
}

func TestHTMLParser_UnclosedElements(t *testing.T) {
	sum, err := Extract(htmlDoc("u.html", "<h1>Open heading\n<a href=\"/x\">dangling"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sum.Headings) != 1 || sum.Headings[0].Text != "Open heading dangling" {
		t.Errorf("expected unclosed heading to be flushed, got %+v", sum.Headings)
	}
	if len(sum.Links) != 1 || sum.Links[0].Href != "/x" || sum.Links[0].Line != 2 {
		t.Errorf("expected unclosed link to be flushed, got %+v", sum.Links)
	}
}

func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{"h1": 1, "h6": 6, "h7": 0, "hr": 0, "p": 0, "header": 0}
	for tag, want := range tests {
		if got := headingLevel(tag); got != want {
			t.Errorf("headingLevel(%q) = %d, want %d", tag, got, want)
		}
	}
}
