package storetest

import (
	"bytes"
	"context"
	"testing"

	"github.com/jmgilman/objstore/core"
)

// putAll writes one small object per path, failing the test on error.
func putAll(t *testing.T, store core.Store, paths ...string) {
	t.Helper()
	ctx := context.Background()
	for _, raw := range paths {
		location := core.MustParsePath(raw)
		if _, err := store.Put(ctx, location, bytes.NewReader([]byte("data for "+raw))); err != nil {
			t.Fatalf("Put(%s): setup failed: %v", raw, err)
		}
	}
}

// locations extracts the path strings of metas, sorted segment-wise.
func locations(metas []core.ObjectMeta) []string {
	core.SortObjectMeta(metas)
	out := make([]string, len(metas))
	for i, meta := range metas {
		out[i] = meta.Location.String()
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestList covers lazy recursive listing and segment-wise prefix
// filtering. Assumes an empty store.
func TestList(t *testing.T, store core.Store, _ Config) {
	ctx := context.Background()

	t.Run("EmptyStore", func(t *testing.T) {
		metas, err := core.CollectList(ctx, store, core.Path{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(metas) != 0 {
			t.Errorf("List on empty store = %v, want none", locations(metas))
		}
	})

	putAll(t, store, "foo/bar/x", "foo/bar/y", "foo/bar_baz/x", "top.txt")

	t.Run("Root", func(t *testing.T) {
		metas, err := core.CollectList(ctx, store, core.Path{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"foo/bar/x", "foo/bar/y", "foo/bar_baz/x", "top.txt"}
		if got := locations(metas); !sameStrings(got, want) {
			t.Errorf("List(root) = %v, want %v", got, want)
		}
	})

	t.Run("SegmentPrefix", func(t *testing.T) {
		// "foo/bar" must not match "foo/bar_baz/x".
		metas, err := core.CollectList(ctx, store, core.MustParsePath("foo/bar"))
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"foo/bar/x", "foo/bar/y"}
		if got := locations(metas); !sameStrings(got, want) {
			t.Errorf("List(foo/bar) = %v, want %v", got, want)
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		metas, err := core.CollectList(ctx, store, core.MustParsePath("something"))
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(metas) != 0 {
			t.Errorf("List(something) = %v, want none", locations(metas))
		}
	})

	t.Run("EarlyStop", func(t *testing.T) {
		// Consumers may abandon a listing; the producer must not leak
		// or panic. Cancel after the first entry and reissue.
		cancelCtx, cancel := context.WithCancel(ctx)
		ch := store.List(cancelCtx, core.Path{})
		entry, ok := <-ch
		if !ok {
			t.Fatal("List produced no entries")
		}
		if entry.Err != nil {
			t.Fatalf("List entry error: %v", entry.Err)
		}
		cancel()

		metas, err := core.CollectList(ctx, store, core.Path{})
		if err != nil {
			t.Fatalf("List after restart: %v", err)
		}
		if len(metas) != 4 {
			t.Errorf("restarted List returned %d objects, want 4", len(metas))
		}
	})
}

// TestDelimiter covers single-level listing and its union property
// against the recursive listing. Assumes an empty store.
func TestDelimiter(t *testing.T, store core.Store, _ Config) {
	ctx := context.Background()
	putAll(t, store, "a/b/c.txt", "a/b/d.txt", "a/e.txt", "top.txt")

	t.Run("Root", func(t *testing.T) {
		result, err := store.ListWithDelimiter(ctx, core.Path{})
		if err != nil {
			t.Fatalf("ListWithDelimiter: %v", err)
		}
		if got := locations(result.Objects); !sameStrings(got, []string{"top.txt"}) {
			t.Errorf("Objects = %v, want [top.txt]", got)
		}
		if len(result.CommonPrefixes) != 1 || result.CommonPrefixes[0].String() != "a" {
			t.Errorf("CommonPrefixes = %v, want [a]", result.CommonPrefixes)
		}
	})

	t.Run("Nested", func(t *testing.T) {
		result, err := store.ListWithDelimiter(ctx, core.MustParsePath("a"))
		if err != nil {
			t.Fatalf("ListWithDelimiter: %v", err)
		}
		if got := locations(result.Objects); !sameStrings(got, []string{"a/e.txt"}) {
			t.Errorf("Objects = %v, want [a/e.txt]", got)
		}
		if len(result.CommonPrefixes) != 1 || result.CommonPrefixes[0].String() != "a/b" {
			t.Errorf("CommonPrefixes = %v, want [a/b]", result.CommonPrefixes)
		}
	})

	t.Run("Leaf", func(t *testing.T) {
		result, err := store.ListWithDelimiter(ctx, core.MustParsePath("a/b"))
		if err != nil {
			t.Fatalf("ListWithDelimiter: %v", err)
		}
		if got := locations(result.Objects); !sameStrings(got, []string{"a/b/c.txt", "a/b/d.txt"}) {
			t.Errorf("Objects = %v, want [a/b/c.txt a/b/d.txt]", got)
		}
		if len(result.CommonPrefixes) != 0 {
			t.Errorf("CommonPrefixes = %v, want none", result.CommonPrefixes)
		}
	})

	t.Run("UnionProperty", func(t *testing.T) {
		// The backend's native delimited listing must agree with the
		// reduction of its own recursive listing at every level.
		prefixes := []core.Path{
			{},
			core.MustParsePath("a"),
			core.MustParsePath("a/b"),
			core.MustParsePath("missing"),
		}
		for _, prefix := range prefixes {
			native, err := store.ListWithDelimiter(ctx, prefix)
			if err != nil {
				t.Fatalf("ListWithDelimiter(%q): %v", prefix, err)
			}
			flat, err := core.CollectList(ctx, store, prefix)
			if err != nil {
				t.Fatalf("List(%q): %v", prefix, err)
			}
			derived := core.DelimitedList(prefix, flat)

			if got, want := locations(native.Objects), locations(derived.Objects); !sameStrings(got, want) {
				t.Errorf("prefix %q: native objects %v != derived %v", prefix, got, want)
			}
			gotPrefixes := make([]string, len(native.CommonPrefixes))
			for i, p := range native.CommonPrefixes {
				gotPrefixes[i] = p.String()
			}
			wantPrefixes := make([]string, len(derived.CommonPrefixes))
			for i, p := range derived.CommonPrefixes {
				wantPrefixes[i] = p.String()
			}
			if !sameStrings(gotPrefixes, wantPrefixes) {
				t.Errorf("prefix %q: native prefixes %v != derived %v", prefix, gotPrefixes, wantPrefixes)
			}
		}
	})
}
