package parser

import (
	"bytes"
	"strings"

	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown and MDX sources using goldmark.
type MarkdownParser struct{}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

func (p *MarkdownParser) Extract(doc doctree.Document) (*doctree.Summary, error) {
	src := doc.Content
	fm, bodyStart, err := splitFrontmatter(src)
	if err != nil {
		return nil, &ExtractionError{Path: doc.Path, Line: 1, Err: err}
	}

	lines := newLineIndex(src)
	body := src[bodyStart:]
	root := newMarkdown().Parser().Parse(text.NewReader(body))

	sum := &doctree.Summary{
		Frontmatter: fm,
		Anchors:     map[string]struct{}{},
	}
	slugs := newHeadingSlugger()
	lineOf := func(n ast.Node) int {
		off, ok := nodeOffset(n, body)
		if !ok {
			return 0
		}
		return lines.line(bodyStart + off)
	}

	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			h := doctree.Heading{
				Level: node.Level,
				Text:  inlineText(node, body),
				Line:  lineOf(node),
			}
			h.ID = slugs.Slug(h.Text)
			if h.ID != "" {
				sum.Anchors[h.ID] = struct{}{}
			}
			sum.Headings = append(sum.Headings, h)

		case *ast.Link:
			dest := string(node.Destination)
			sum.Links = append(sum.Links, doctree.Link{
				Href: dest,
				Text: inlineText(node, body),
				Kind: doctree.ClassifyHref(dest),
				Line: lineOf(node),
			})

		case *ast.AutoLink:
			dest := string(node.URL(body))
			sum.Links = append(sum.Links, doctree.Link{
				Href: dest,
				Text: string(node.Label(body)),
				Kind: doctree.ClassifyHref(dest),
				Line: lineOf(node),
			})

		case *ast.Image:
			alt := inlineText(node, body)
			sum.Images = append(sum.Images, doctree.Image{
				Src:        string(node.Destination),
				Alt:        alt,
				HasAltText: alt != "",
				Line:       lineOf(node),
			})
			// Alt text is already collected.
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock:
			var raw bytes.Buffer
			segs := node.Lines()
			for i := 0; i < segs.Len(); i++ {
				seg := segs.At(i)
				raw.Write(seg.Value(body))
			}
			if node.HasClosure() {
				raw.Write(node.ClosureLine.Value(body))
			}
			scanInlineHTML(raw.Bytes(), lineOf(node), sum)

		case *ast.RawHTML:
			var raw bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				raw.Write(seg.Value(body))
			}
			scanInlineHTML(raw.Bytes(), lineOf(node), sum)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, &ExtractionError{Path: doc.Path, Err: err}
	}
	return sum, nil
}

// inlineText collects the plain text of a node's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	var collect func(ast.Node)
	collect = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.RawHTML:
				// Tags are markup, not text.
			default:
				collect(c)
			}
		}
	}
	collect(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// nodeOffset finds the byte offset of a node in the body: its first line
// for blocks, the first text segment for inlines, the end of the preceding
// text sibling, else the nearest ancestor.
func nodeOffset(n ast.Node, src []byte) (int, bool) {
	if off, ok := ownOffset(n); ok {
		return off, true
	}
	if t, ok := n.PreviousSibling().(*ast.Text); ok {
		off := t.Segment.Stop
		if t.SoftLineBreak() || t.HardLineBreak() {
			if i := bytes.IndexByte(src[off:], '\n'); i >= 0 {
				off += i + 1
			}
		}
		return off, true
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if off, ok := ownOffset(p); ok {
			return off, true
		}
	}
	return 0, false
}

func ownOffset(n ast.Node) (int, bool) {
	switch t := n.(type) {
	case *ast.Text:
		return t.Segment.Start, true
	case *ast.RawHTML:
		if t.Segments.Len() > 0 {
			return t.Segments.At(0).Start, true
		}
	case *ast.Document:
		return 0, false
	}
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, true
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := ownOffset(c); ok {
			return off, true
		}
	}
	return 0, false
}
