package parser

import (
	"strconv"
	"strings"
	"unicode"
)

// headingSlugger assigns heading ids the way the site's github-slugger does:
// lowercase, punctuation and symbols dropped, each space a hyphen, and a -N
// suffix for repeats within one document.
type headingSlugger struct {
	seen map[string]int
}

func newHeadingSlugger() *headingSlugger {
	return &headingSlugger{seen: map[string]int{}}
}

func (s *headingSlugger) Slug(text string) string {
	base := slugify(text)
	slug := base
	for {
		if _, taken := s.seen[slug]; !taken {
			break
		}
		s.seen[base]++
		slug = base + "-" + strconv.Itoa(s.seen[base])
	}
	s.seen[slug] = 0
	return slug
}

func slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
