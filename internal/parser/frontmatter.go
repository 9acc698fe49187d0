package parser

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	errUnterminatedFrontmatter = errors.New("unterminated frontmatter block")
	errFrontmatterNotMapping   = errors.New("frontmatter must be a mapping")
)

// splitFrontmatter separates a leading front block from the body: either a
// "---" fenced YAML block or a bare JSON object. It returns the decoded map
// (empty when there is no block) and the byte offset where the body starts.
func splitFrontmatter(src []byte) (map[string]any, int, error) {
	start := 0
	if bytes.HasPrefix(src, []byte("\xef\xbb\xbf")) {
		start = 3
	}
	if start < len(src) && src[start] == '{' {
		return splitJSONFrontmatter(src, start)
	}
	first, next := readLine(src, start)
	if string(bytes.TrimRight(first, " \t")) != "---" {
		return map[string]any{}, 0, nil
	}

	blockStart := next
	pos := next
	for pos < len(src) {
		line, after := readLine(src, pos)
		trimmed := string(bytes.TrimRight(line, " \t"))
		if trimmed == "---" || trimmed == "..." {
			fm, err := decodeFrontmatter(src[blockStart:pos])
			if err != nil {
				return nil, 0, err
			}
			return fm, after, nil
		}
		pos = after
	}
	return nil, 0, errUnterminatedFrontmatter
}

// splitJSONFrontmatter decodes a JSON object starting at start. The object
// must end its line. An MDX comment expression ({/* ... */}) is body, not
// frontmatter.
func splitJSONFrontmatter(src []byte, start int) (map[string]any, int, error) {
	rest := bytes.TrimLeft(src[start+1:], " \t\r\n")
	if bytes.HasPrefix(rest, []byte("/")) {
		return map[string]any{}, 0, nil
	}
	end := objectEnd(src, start)
	if end < 0 {
		return nil, 0, errUnterminatedFrontmatter
	}
	tail, after := readLine(src, end)
	if len(bytes.TrimSpace(tail)) != 0 {
		return nil, 0, fmt.Errorf("unexpected text after frontmatter object: %q", tail)
	}
	fm, err := decodeFrontmatter(src[start:end])
	if err != nil {
		return nil, 0, err
	}
	return fm, after, nil
}

// objectEnd returns the offset just past the brace that closes the object
// opened at start, or -1. Quoted strings are skipped.
func objectEnd(src []byte, start int) int {
	depth := 0
	var quote byte
	for i := start; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func decodeFrontmatter(block []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(block)) == 0 {
		return map[string]any{}, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	raw, err := nodeValue(&doc)
	if err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, errFrontmatterNotMapping
	}
}

// nodeValue converts a YAML node into plain Go values. Timestamps keep their
// source text so dates compare and print as written.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			v, err := nodeValue(val)
			if err != nil {
				return nil, err
			}
			if key.Tag == "!!merge" {
				if m, ok := v.(map[string]any); ok {
					for mk, mv := range m {
						if _, set := out[mk]; !set {
							out[mk] = mv
						}
					}
				}
				continue
			}
			out[key.Value] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		if n.Tag == "!!timestamp" {
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, nil
}

// readLine returns the line starting at pos without its terminator, and the
// offset of the following line.
func readLine(src []byte, pos int) ([]byte, int) {
	if pos >= len(src) {
		return nil, len(src)
	}
	i := bytes.IndexByte(src[pos:], '\n')
	if i < 0 {
		return bytes.TrimSuffix(src[pos:], []byte("\r")), len(src)
	}
	return bytes.TrimSuffix(src[pos:pos+i], []byte("\r")), pos + i + 1
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range src {
		if b == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (li lineIndex) line(offset int) int {
	lo, hi := 0, len(li)
	for lo < hi {
		mid := (lo + hi) / 2
		if li[mid] <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
