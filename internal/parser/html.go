package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/contentcheck/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles built HTML pages.
type HTMLParser struct{}

func (p *HTMLParser) Extract(doc doctree.Document) (*doctree.Summary, error) {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Content))
	if err != nil {
		return nil, &ExtractionError{Path: doc.Path, Err: fmt.Errorf("parse html: %w", err)}
	}

	sum := &doctree.Summary{
		Frontmatter: pageMeta(gq),
		Anchors:     map[string]struct{}{},
	}
	if err := scanHTML(doc.Content, 1, sum, true); err != nil {
		return nil, &ExtractionError{Path: doc.Path, Err: err}
	}
	return sum, nil
}

// pageMeta collects the document-level metadata a built page carries in its
// head: title, language and named meta tags.
func pageMeta(gq *goquery.Document) map[string]any {
	meta := map[string]any{}
	if title := strings.TrimSpace(gq.Find("title").First().Text()); title != "" {
		meta["title"] = title
	}
	if lang, ok := gq.Find("html").First().Attr("lang"); ok && strings.TrimSpace(lang) != "" {
		meta["lang"] = strings.TrimSpace(lang)
	}
	gq.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key := s.AttrOr("name", "")
		if key == "" {
			key = s.AttrOr("property", "")
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		if _, exists := meta[key]; !exists {
			meta[key] = strings.TrimSpace(content)
		}
	})
	return meta
}

// scanInlineHTML records links, images and anchors from raw HTML embedded in
// Markdown. Tokenizer errors are ignored: fragments are rarely well formed.
func scanInlineHTML(raw []byte, baseLine int, sum *doctree.Summary) {
	if baseLine <= 0 {
		baseLine = 1
	}
	_ = scanHTML(raw, baseLine, sum, false)
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

type openText struct {
	buf  strings.Builder
	line int
}

// scanHTML walks tokens in document order, tracking line numbers from the
// raw token bytes. With headings set, h1..h6 elements are recorded as well.
func scanHTML(src []byte, baseLine int, sum *doctree.Summary, headings bool) error {
	z := html.NewTokenizer(bytes.NewReader(src))
	line := baseLine

	var (
		heading   *openText
		headLevel int
		headID    string
		link      *openText
		linkHref  string
		skipDepth int
	)

	for {
		tt := z.Next()
		tokLine := line
		line += bytes.Count(z.Raw(), []byte("\n"))

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("tokenize html: %w", err)
			}
			if link != nil {
				sum.Links = append(sum.Links, newLink(linkHref, link.buf.String(), link.line))
			}
			if heading != nil {
				sum.Headings = append(sum.Headings, doctree.Heading{
					Level: headLevel,
					Text:  collapse(heading.buf.String()),
					Line:  heading.line,
					ID:    headID,
				})
			}
			return nil

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			t := string(z.Text())
			if heading != nil {
				heading.buf.WriteString(t)
			}
			if link != nil {
				link.buf.WriteString(t)
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			attrs := map[string]string{}
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				attrs[string(k)] = string(v)
			}

			switch tag {
			case "script", "style", "template":
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}

			if id := strings.TrimSpace(attrs["id"]); id != "" {
				sum.Anchors[id] = struct{}{}
			}

			switch {
			case tag == "img":
				alt, ok := attrs["alt"]
				sum.Images = append(sum.Images, doctree.Image{
					Src:        attrs["src"],
					Alt:        strings.TrimSpace(alt),
					HasAltText: ok,
					Line:       tokLine,
				})
				if heading != nil {
					heading.buf.WriteString(alt)
				}
				if link != nil {
					link.buf.WriteString(alt)
				}

			case tag == "a":
				if anchor := strings.TrimSpace(attrs["name"]); anchor != "" {
					sum.Anchors[anchor] = struct{}{}
				}
				href, ok := attrs["href"]
				if !ok {
					continue
				}
				if tt == html.SelfClosingTagToken {
					sum.Links = append(sum.Links, newLink(href, "", tokLine))
					continue
				}
				if link != nil {
					sum.Links = append(sum.Links, newLink(linkHref, link.buf.String(), link.line))
				}
				link = &openText{line: tokLine}
				linkHref = href

			case headings && headingLevel(tag) > 0 && tt == html.StartTagToken:
				heading = &openText{line: tokLine}
				headLevel = headingLevel(tag)
				headID = strings.TrimSpace(attrs["id"])
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch tag {
			case "script", "style", "template":
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if tag == "a" && link != nil {
				sum.Links = append(sum.Links, newLink(linkHref, link.buf.String(), link.line))
				link = nil
			}
			if heading != nil && headingLevel(tag) == headLevel {
				sum.Headings = append(sum.Headings, doctree.Heading{
					Level: headLevel,
					Text:  collapse(heading.buf.String()),
					Line:  heading.line,
					ID:    headID,
				})
				heading = nil
			}
		}
	}
}

func newLink(href, text string, line int) doctree.Link {
	return doctree.Link{
		Href: href,
		Text: collapse(text),
		Kind: doctree.ClassifyHref(href),
		Line: line,
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
