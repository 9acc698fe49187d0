package index

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/dgallion1/contentcheck/internal/doctree"
)

var pageSuffixes = []string{
	"/index.html", "/index.htm", "/index.md", "/index.mdx", "/index.markdown",
	".html", ".htm", ".mdx", ".md", ".markdown",
}

func trimPageSuffix(p string) string {
	if p == "index.html" || p == "index.htm" || p == "index.md" || p == "index.mdx" || p == "index.markdown" {
		return ""
	}
	for _, suf := range pageSuffixes {
		if strings.HasSuffix(p, suf) {
			return strings.TrimSuffix(p, suf)
		}
	}
	return p
}

// SplitHref separates an href into its path and fragment, dropping any query.
func SplitHref(href string) (p, fragment string) {
	p = strings.TrimSpace(href)
	if i := strings.IndexByte(p, '#'); i >= 0 {
		fragment = p[i+1:]
		p = p[:i]
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if f, err := url.PathUnescape(fragment); err == nil {
		fragment = f
	}
	return p, fragment
}

// ResolveHref turns an internal href found in from into the route it
// targets, plus its fragment. Relative hrefs resolve against the directory
// the page is served from; basePath is stripped from absolute hrefs.
// An href with no path refers to from itself.
func ResolveHref(from *doctree.Summary, href, basePath string) (route, fragment string) {
	p, fragment := SplitHref(href)
	if p == "" {
		return from.Route, fragment
	}
	if u, err := url.PathUnescape(p); err == nil {
		p = u
	}

	if strings.HasPrefix(p, "/") {
		p = stripBase(p, basePath)
	} else {
		p = path.Join(servedDir(from), p)
	}

	p = path.Clean("/" + p)
	p = trimPageSuffix(p)
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/", fragment
	}
	return p, fragment
}

// servedDir is the URL directory of a page. Index pages are served as
// directories, so their relative links resolve beneath their own route.
func servedDir(s *doctree.Summary) string {
	base := path.Base(filepath.ToSlash(s.SourcePath))
	if strings.HasPrefix(base, "index.") {
		return s.Route
	}
	return path.Dir(s.Route)
}

func stripBase(p, basePath string) string {
	base := "/" + strings.Trim(basePath, "/")
	if base == "/" {
		return p
	}
	if p == base {
		return "/"
	}
	if strings.HasPrefix(p, base+"/") {
		return strings.TrimPrefix(p, base)
	}
	return p
}
