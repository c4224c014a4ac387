package core

import (
	"fmt"
	"strings"
)

// Delimiter separates path segments in the canonical key form.
const Delimiter = "/"

// Path identifies an object in a store as an ordered sequence of
// non-empty segments. The zero value is the root path (no segments).
//
// Path is an immutable value type: construct it at call boundaries with
// ParsePath or PathFromSegments, then compare and join freely. The
// canonical string form joins segments with "/" and carries no leading
// or trailing separator.
type Path struct {
	raw string
}

// ParsePath builds a Path from a raw string.
//
// Backslashes are treated as separators, duplicate, leading, and
// trailing separators are dropped. Segments equal to "." or ".." are
// rejected with ErrInvalidInput since relative markers have no meaning
// in a flat keyspace.
func ParsePath(raw string) (Path, error) {
	raw = strings.ReplaceAll(raw, "\\", Delimiter)

	var segments []string
	for _, segment := range strings.Split(raw, Delimiter) {
		if segment == "" {
			continue
		}
		if segment == "." || segment == ".." {
			return Path{}, fmt.Errorf("%w: relative segment %q in path %q", ErrInvalidInput, segment, raw)
		}
		segments = append(segments, segment)
	}

	return Path{raw: strings.Join(segments, Delimiter)}, nil
}

// PathFromSegments builds a Path from explicit segments. Unlike
// ParsePath it rejects rather than normalizes: an empty segment or a
// segment containing a separator is ErrInvalidInput.
func PathFromSegments(segments ...string) (Path, error) {
	for _, segment := range segments {
		if segment == "" {
			return Path{}, fmt.Errorf("%w: empty path segment", ErrInvalidInput)
		}
		if segment == "." || segment == ".." {
			return Path{}, fmt.Errorf("%w: relative segment %q", ErrInvalidInput, segment)
		}
		if strings.ContainsAny(segment, "/\\") {
			return Path{}, fmt.Errorf("%w: segment %q contains a separator", ErrInvalidInput, segment)
		}
	}
	return Path{raw: strings.Join(segments, Delimiter)}, nil
}

// MustParsePath is ParsePath for statically known paths. It panics on
// invalid input and is intended for tests and package-level constants.
func MustParsePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the canonical joined form ("a/b/c"). The root path
// returns "".
func (p Path) String() string { return p.raw }

// IsRoot reports whether the path has no segments.
func (p Path) IsRoot() bool { return p.raw == "" }

// Parts returns the path segments in order. The root path returns nil.
func (p Path) Parts() []string {
	if p.raw == "" {
		return nil
	}
	return strings.Split(p.raw, Delimiter)
}

// Base returns the final segment, or "" for the root path.
func (p Path) Base() string {
	if p.raw == "" {
		return ""
	}
	if i := strings.LastIndex(p.raw, Delimiter); i >= 0 {
		return p.raw[i+1:]
	}
	return p.raw
}

// Parent returns the path with the final segment removed. The second
// return value is false when the path is already the root.
func (p Path) Parent() (Path, bool) {
	if p.raw == "" {
		return Path{}, false
	}
	if i := strings.LastIndex(p.raw, Delimiter); i >= 0 {
		return Path{raw: p.raw[:i]}, true
	}
	return Path{}, true
}

// Child returns the path extended by one segment. The segment must be
// valid per PathFromSegments.
func (p Path) Child(segment string) (Path, error) {
	child, err := PathFromSegments(segment)
	if err != nil {
		return Path{}, err
	}
	return p.Join(child), nil
}

// Join appends other's segments to p.
func (p Path) Join(other Path) Path {
	switch {
	case p.raw == "":
		return other
	case other.raw == "":
		return p
	default:
		return Path{raw: p.raw + Delimiter + other.raw}
	}
}

// Equal reports segment-wise equality.
func (p Path) Equal(other Path) bool { return p.raw == other.raw }

// Compare orders paths segment-wise with ordinal segment comparison.
// It returns -1, 0, or +1. Note this differs from comparing the raw
// strings: "a/b" sorts before "a!b" because the first segments "a" and
// "a!b" are compared, not the raw bytes around the separator.
func (p Path) Compare(other Path) int {
	a, b := p.Parts(), other.Parts()
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) p,
// evaluated on whole segments: "foo/bar" is a prefix of "foo/bar/x"
// but not of "foo/bar_baz/x". Every path has the root as a prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if prefix.raw == "" {
		return true
	}
	if p.raw == prefix.raw {
		return true
	}
	return strings.HasPrefix(p.raw, prefix.raw+Delimiter)
}

// PartsAfter returns the segments of p below prefix. The second return
// value is false when prefix is not a strict segment-wise prefix of p.
func (p Path) PartsAfter(prefix Path) ([]string, bool) {
	if !p.HasPrefix(prefix) || p.raw == prefix.raw {
		return nil, false
	}
	rest := p.raw
	if prefix.raw != "" {
		rest = strings.TrimPrefix(p.raw, prefix.raw+Delimiter)
	}
	return strings.Split(rest, Delimiter), true
}
