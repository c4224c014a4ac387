package core

import (
	"fmt"
	"sort"
)

// DelimitedList reduces a flat, prefix-filtered sequence of object
// metadata to a single-level ListResult: objects exactly one segment
// below prefix are returned verbatim, while deeper objects contribute
// their next segment once as a common prefix, regardless of how many
// objects share it.
//
// Entries that do not lie strictly under prefix are ignored, so callers
// may pass an unfiltered listing. Objects and common prefixes are
// sorted segment-wise for stable output.
func DelimitedList(prefix Path, metas []ObjectMeta) ListResult {
	var result ListResult
	seen := make(map[string]struct{})

	for _, meta := range metas {
		rest, ok := meta.Location.PartsAfter(prefix)
		if !ok {
			continue
		}
		if len(rest) == 1 {
			result.Objects = append(result.Objects, meta)
			continue
		}
		child := prefix.Join(Path{raw: rest[0]})
		if _, dup := seen[child.raw]; dup {
			continue
		}
		seen[child.raw] = struct{}{}
		result.CommonPrefixes = append(result.CommonPrefixes, child)
	}

	SortObjectMeta(result.Objects)
	SortPaths(result.CommonPrefixes)
	return result
}

// SortObjectMeta sorts metas in place by segment-wise location order.
func SortObjectMeta(metas []ObjectMeta) {
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].Location.Compare(metas[j].Location) < 0
	})
}

// SortPaths sorts paths in place segment-wise.
func SortPaths(paths []Path) {
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Compare(paths[j]) < 0
	})
}

// ValidateNextPart enforces the shared multipart ordering contract:
// part numbers start at 1 and arrive in strictly increasing, contiguous
// order. Backends call it before accepting a part so violations carry
// the same taxonomy everywhere.
func ValidateNextPart(u *MultipartUpload, partNumber int) error {
	want := len(u.Parts) + 1
	if partNumber != want {
		return fmt.Errorf("%w: part number %d, want %d", ErrInvalidInput, partNumber, want)
	}
	return nil
}
