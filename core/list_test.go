package core_test

import (
	"errors"
	"testing"

	"github.com/jmgilman/objstore/core"
)

func metasFor(paths ...string) []core.ObjectMeta {
	metas := make([]core.ObjectMeta, 0, len(paths))
	for _, p := range paths {
		metas = append(metas, core.ObjectMeta{Location: core.MustParsePath(p), Size: 1})
	}
	return metas
}

// TestDelimitedList verifies the single-level reduction of a flat listing.
func TestDelimitedList(t *testing.T) {
	metas := metasFor(
		"a/b/c.txt",
		"a/b/d.txt",
		"a/e.txt",
		"top.txt",
		"z/deep/deeper/file",
	)

	tests := []struct {
		name         string
		prefix       string
		wantObjects  []string
		wantPrefixes []string
	}{
		{
			name:         "root",
			prefix:       "",
			wantObjects:  []string{"top.txt"},
			wantPrefixes: []string{"a", "z"},
		},
		{
			name:         "one level down",
			prefix:       "a",
			wantObjects:  []string{"a/e.txt"},
			wantPrefixes: []string{"a/b"},
		},
		{
			name:         "leaf directory",
			prefix:       "a/b",
			wantObjects:  []string{"a/b/c.txt", "a/b/d.txt"},
			wantPrefixes: nil,
		},
		{
			name:         "no matches",
			prefix:       "missing",
			wantObjects:  nil,
			wantPrefixes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := core.DelimitedList(core.MustParsePath(tt.prefix), metas)

			if len(result.Objects) != len(tt.wantObjects) {
				t.Fatalf("Objects = %v, want %v", result.Objects, tt.wantObjects)
			}
			for i, want := range tt.wantObjects {
				if got := result.Objects[i].Location.String(); got != want {
					t.Errorf("Objects[%d] = %q, want %q", i, got, want)
				}
			}

			if len(result.CommonPrefixes) != len(tt.wantPrefixes) {
				t.Fatalf("CommonPrefixes = %v, want %v", result.CommonPrefixes, tt.wantPrefixes)
			}
			for i, want := range tt.wantPrefixes {
				if got := result.CommonPrefixes[i].String(); got != want {
					t.Errorf("CommonPrefixes[%d] = %q, want %q", i, got, want)
				}
			}
		})
	}
}

// TestDelimitedListDeduplicatesPrefixes verifies a shared segment is
// reported once no matter how many objects sit under it.
func TestDelimitedListDeduplicatesPrefixes(t *testing.T) {
	metas := metasFor("dir/one", "dir/two", "dir/sub/three")

	result := core.DelimitedList(core.Path{}, metas)
	if len(result.CommonPrefixes) != 1 || result.CommonPrefixes[0].String() != "dir" {
		t.Errorf("CommonPrefixes = %v, want exactly [dir]", result.CommonPrefixes)
	}
	if len(result.Objects) != 0 {
		t.Errorf("Objects = %v, want none at root", result.Objects)
	}
}

// TestValidateNextPart verifies the shared multipart ordering contract.
func TestValidateNextPart(t *testing.T) {
	u := &core.MultipartUpload{ID: "u1", Location: core.MustParsePath("big")}

	if err := core.ValidateNextPart(u, 1); err != nil {
		t.Fatalf("first part rejected: %v", err)
	}
	u.Parts = append(u.Parts, core.Part{Number: 1, ETag: "e1"})

	if err := core.ValidateNextPart(u, 1); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("duplicate part error = %v, want ErrInvalidInput", err)
	}
	if err := core.ValidateNextPart(u, 3); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("gap part error = %v, want ErrInvalidInput", err)
	}
	if err := core.ValidateNextPart(u, 2); err != nil {
		t.Errorf("contiguous part rejected: %v", err)
	}
}
