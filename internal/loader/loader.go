// Package loader discovers content documents under one or more scan roots.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/contentcheck/internal/doctree"
)

var (
	// ErrRootNotFound is returned when a declared scan root is missing or not a directory.
	ErrRootNotFound = errors.New("scan root not found")
	// ErrConsumed is yielded when Documents is called a second time.
	ErrConsumed = errors.New("document sequence already consumed")
)

// DefaultExclude skips dependency and hidden directories.
var DefaultExclude = []string{"**/node_modules/**", "**/.*/**"}

// Options controls which files are yielded.
type Options struct {
	Include []string         // doublestar patterns on root-relative paths; empty means all
	Exclude []string         // doublestar patterns; matched files are skipped
	Formats []doctree.Format // formats to yield; empty means all content formats
}

// Loader walks scan roots and yields content documents.
type Loader struct {
	roots    []string
	opts     Options
	consumed atomic.Bool
}

// New validates roots and patterns. A root that does not exist or is not a
// directory is fatal for the run.
func New(roots []string, opts Options) (*Loader, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no roots given", ErrRootNotFound)
	}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
		}
	}
	for _, p := range append(slices.Clone(opts.Include), opts.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return &Loader{roots: roots, opts: opts}, nil
}

// Roots returns the scan roots in argument order.
func (l *Loader) Roots() []string {
	return slices.Clone(l.roots)
}

// Documents returns a lazy sequence of documents in root order, then lexical
// file order. The sequence can be ranged over once; later calls yield
// ErrConsumed. Per-file read failures are yielded with the document path set.
func (l *Loader) Documents() iter.Seq2[doctree.Document, error] {
	return func(yield func(doctree.Document, error) bool) {
		if !l.consumed.CompareAndSwap(false, true) {
			yield(doctree.Document{}, ErrConsumed)
			return
		}
		for _, root := range l.roots {
			stop := false
			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					if path == root {
						return err
					}
					if !yield(doctree.Document{Path: path, Root: root}, fmt.Errorf("walk %s: %w", path, err)) {
						stop = true
						return fs.SkipAll
					}
					if d != nil && d.IsDir() {
						return fs.SkipDir
					}
					return nil
				}
				if d.IsDir() {
					return nil
				}

				rel, relErr := filepath.Rel(root, path)
				if relErr != nil {
					return relErr
				}
				rel = filepath.ToSlash(rel)

				format := doctree.FormatForFile(rel)
				if !l.accepts(rel, format) {
					return nil
				}

				doc := doctree.Document{Path: path, Root: root, Rel: rel, Format: format}
				content, readErr := os.ReadFile(path)
				if readErr != nil {
					readErr = fmt.Errorf("read %s: %w", path, readErr)
				} else {
					doc.Content = content
				}
				if !yield(doc, readErr) {
					stop = true
					return fs.SkipAll
				}
				return nil
			})
			if err != nil {
				yield(doctree.Document{Root: root}, fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err))
				return
			}
			if stop {
				return
			}
		}
	}
}

func (l *Loader) accepts(rel string, format doctree.Format) bool {
	if format == "" {
		return false
	}
	if len(l.opts.Formats) > 0 && !slices.Contains(l.opts.Formats, format) {
		return false
	}
	for _, p := range l.opts.Exclude {
		if doublestar.MatchUnvalidated(p, rel) {
			return false
		}
	}
	if len(l.opts.Include) == 0 {
		return true
	}
	for _, p := range l.opts.Include {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}
