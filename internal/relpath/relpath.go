// Package relpath normalizes filesystem paths into the engine's canonical
// RelPath form and evaluates ignore patterns against them. A RelPath is a
// `/`-separated, platform-neutral relative path with no leading separator
// and no `.` or `..` segments; comparison is always byte-exact.
package relpath

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Normalize converts a filesystem-native relative path (using the local
// OS separator) into canonical RelPath form. It rejects `.`/`..` segments
// and empty segments, matching the data model's RelPath definition.
func Normalize(nativeRelPath string) (string, error) {
	p := strings.ReplaceAll(nativeRelPath, "\\", "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return "", fmt.Errorf("relpath: empty path")
	}
	segments := strings.Split(p, "/")
	for _, seg := range segments {
		switch seg {
		case "":
			return "", fmt.Errorf("relpath: %q has an empty segment", nativeRelPath)
		case ".", "..":
			return "", fmt.Errorf("relpath: %q contains a %q segment", nativeRelPath, seg)
		}
	}
	return strings.Join(segments, "/"), nil
}

// Join appends a native path segment to an existing RelPath (or "" for the
// root), returning canonical form.
func Join(base, seg string) string {
	if base == "" {
		return seg
	}
	return path.Join(base, seg)
}

// Pattern is a single validated ignore pattern.
type Pattern struct {
	raw      string
	hasSlash bool
}

// ParsePattern validates a raw ignore-pattern string per §4.1: it must be
// non-empty, must not contain a backslash, and must not contain a `..`
// segment. `**` is rejected — the spec explicitly does not support it.
func ParsePattern(raw string) (Pattern, error) {
	if raw == "" {
		return Pattern{}, fmt.Errorf("ignore pattern: empty pattern")
	}
	if strings.Contains(raw, "\\") {
		return Pattern{}, fmt.Errorf("ignore pattern %q: backslash is not allowed, use /", raw)
	}
	if strings.Contains(raw, "**") {
		return Pattern{}, fmt.Errorf("ignore pattern %q: ** is not supported", raw)
	}
	for _, seg := range strings.Split(strings.Trim(raw, "/"), "/") {
		if seg == ".." {
			return Pattern{}, fmt.Errorf("ignore pattern %q: .. segment is not allowed", raw)
		}
	}
	return Pattern{raw: strings.Trim(raw, "/"), hasSlash: strings.Contains(raw, "/")}, nil
}

// Resolver evaluates a candidate RelPath against a fixed set of ignore
// patterns.
type Resolver struct {
	patterns []Pattern
}

// NewResolver validates and compiles a flat list of raw ignore-pattern
// strings.
func NewResolver(raw []string) (*Resolver, error) {
	patterns := make([]Pattern, 0, len(raw))
	for _, r := range raw {
		p, err := ParsePattern(r)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return &Resolver{patterns: patterns}, nil
}

// IsIgnored reports whether relPath (already in canonical RelPath form)
// matches any configured pattern. Name patterns (no `/`) match against any
// single path segment; path patterns (containing `/`) match the full path
// or any path that has the pattern as a segment-bounded prefix.
func (r *Resolver) IsIgnored(relPath string) bool {
	for _, p := range r.patterns {
		if p.hasSlash {
			if matchesPathPattern(relPath, p.raw) {
				return true
			}
		} else if matchesAnySegment(relPath, p.raw) {
			return true
		}
	}
	return false
}

func matchesAnySegment(relPath, pattern string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if globMatch(seg, pattern) {
			return true
		}
	}
	return false
}

func matchesPathPattern(relPath, pattern string) bool {
	patSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(relPath, "/")
	if len(pathSegs) < len(patSegs) {
		return false
	}
	for i, ps := range patSegs {
		if !globMatch(pathSegs[i], ps) {
			return false
		}
	}
	return true
}

// globMatch matches one path segment with doublestar.Match: `*` matches
// any run of characters within the segment and `?` matches exactly one
// character. Characters are UTF-8 runes, not bytes, so `?` matches a
// multi-byte character as one. doublestar's `[...]` classes and `{a,b}`
// alternatives are accepted as well. Patterns were already rejected for
// containing `**` at parse time, so matching never crosses a `/` boundary.
func globMatch(name, pattern string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
