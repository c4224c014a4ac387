package storetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/jmgilman/objstore/core"
)

// readAll fetches an object's full content, failing the test on error.
func readAll(t *testing.T, store core.Store, location core.Path) []byte {
	t.Helper()
	rc, err := store.Get(context.Background(), location)
	if err != nil {
		t.Fatalf("Get(%s): %v", location, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll(%s): %v", location, err)
	}
	return data
}

// TestMove covers Copy, Rename and their conditional variants. Assumes
// an empty store.
func TestMove(t *testing.T, store core.Store, _ Config) {
	ctx := context.Background()
	path1 := core.MustParsePath("test1")
	path2 := core.MustParsePath("test2")
	contents1 := []byte("cats")
	contents2 := []byte("dogs")

	seed := func(t *testing.T) {
		t.Helper()
		if _, err := store.Put(ctx, path1, bytes.NewReader(contents1)); err != nil {
			t.Fatalf("Put(test1): %v", err)
		}
		if _, err := store.Put(ctx, path2, bytes.NewReader(contents2)); err != nil {
			t.Fatalf("Put(test2): %v", err)
		}
	}

	t.Run("CopyOverwrites", func(t *testing.T) {
		seed(t)
		if err := store.Copy(ctx, path1, path2); err != nil {
			t.Fatalf("Copy: %v", err)
		}
		if got := readAll(t, store, path2); !bytes.Equal(got, contents1) {
			t.Errorf("dst after Copy = %q, want %q", got, contents1)
		}
		if got := readAll(t, store, path1); !bytes.Equal(got, contents1) {
			t.Errorf("src after Copy = %q, want %q", got, contents1)
		}
	})

	t.Run("RenameOverwritesAndDeletesSource", func(t *testing.T) {
		seed(t)
		if err := store.Rename(ctx, path1, path2); err != nil {
			t.Fatalf("Rename: %v", err)
		}
		if got := readAll(t, store, path2); !bytes.Equal(got, contents1) {
			t.Errorf("dst after Rename = %q, want %q", got, contents1)
		}
		if _, err := store.Get(ctx, path1); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("src after Rename error = %v, want ErrNotFound", err)
		}
	})

	t.Run("RenameIfNotExistsConflict", func(t *testing.T) {
		seed(t)
		err := store.RenameIfNotExists(ctx, path1, path2)
		if !errors.Is(err, core.ErrAlreadyExists) {
			t.Fatalf("RenameIfNotExists (occupied) error = %v, want ErrAlreadyExists", err)
		}
		// Both sides must be untouched by the failed rename.
		if got := readAll(t, store, path1); !bytes.Equal(got, contents1) {
			t.Errorf("src after failed rename = %q, want %q", got, contents1)
		}
		if got := readAll(t, store, path2); !bytes.Equal(got, contents2) {
			t.Errorf("dst after failed rename = %q, want %q", got, contents2)
		}
	})

	t.Run("RenameIfNotExistsSuccess", func(t *testing.T) {
		seed(t)
		free := core.MustParsePath("test3")
		if err := store.RenameIfNotExists(ctx, path1, free); err != nil {
			t.Fatalf("RenameIfNotExists (free): %v", err)
		}
		if got := readAll(t, store, free); !bytes.Equal(got, contents1) {
			t.Errorf("dst after rename = %q, want %q", got, contents1)
		}
		if _, err := store.Get(ctx, path1); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("src after rename error = %v, want ErrNotFound", err)
		}
		if err := store.Delete(ctx, free); err != nil {
			t.Fatalf("Delete(test3): %v", err)
		}
	})

	t.Run("CopyIfNotExistsConflict", func(t *testing.T) {
		seed(t)
		if err := store.CopyIfNotExists(ctx, path1, path2); !errors.Is(err, core.ErrAlreadyExists) {
			t.Errorf("CopyIfNotExists (occupied) error = %v, want ErrAlreadyExists", err)
		}
		if got := readAll(t, store, path2); !bytes.Equal(got, contents2) {
			t.Errorf("dst after failed copy = %q, want %q", got, contents2)
		}
	})

	t.Run("SourceNotFound", func(t *testing.T) {
		absent := core.MustParsePath("absent/source")
		if err := store.Copy(ctx, absent, path2); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Copy (absent src) error = %v, want ErrNotFound", err)
		}
		if err := store.Rename(ctx, absent, path2); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Rename (absent src) error = %v, want ErrNotFound", err)
		}
	})
}
