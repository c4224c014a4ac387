package storetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/jmgilman/objstore/core"
)

// TestReadWrite covers Put/Get/Head/Delete round trips and the typed
// NotFound behavior of each. Assumes an empty store.
func TestReadWrite(t *testing.T, store core.Store, _ Config) {
	ctx := context.Background()
	location := core.MustParsePath("test_dir/test_file.json")
	content := []byte("arbitrary data")

	t.Run("RoundTrip", func(t *testing.T) {
		meta, err := store.Put(ctx, location, bytes.NewReader(content))
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if !meta.Location.Equal(location) {
			t.Errorf("Put meta.Location = %q, want %q", meta.Location, location)
		}
		if meta.Size != int64(len(content)) {
			t.Errorf("Put meta.Size = %d, want %d", meta.Size, len(content))
		}

		rc, err := store.Get(ctx, location)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		got, err := io.ReadAll(rc)
		if cerr := rc.Close(); cerr != nil {
			t.Errorf("Close: %v", cerr)
		}
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("Get = %q, want %q", got, content)
		}
	})

	t.Run("Head", func(t *testing.T) {
		meta, err := store.Head(ctx, location)
		if err != nil {
			t.Fatalf("Head: %v", err)
		}
		if !meta.Location.Equal(location) || meta.Size != int64(len(content)) {
			t.Errorf("Head = {%q %d}, want {%q %d}", meta.Location, meta.Size, location, len(content))
		}
		if meta.LastModified.IsZero() {
			t.Error("Head LastModified is zero")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		replacement := []byte("replacement content")
		if _, err := store.Put(ctx, location, bytes.NewReader(replacement)); err != nil {
			t.Fatalf("Put (overwrite): %v", err)
		}

		rc, err := store.Get(ctx, location)
		if err != nil {
			t.Fatalf("Get after overwrite: %v", err)
		}
		defer func() { _ = rc.Close() }()

		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !bytes.Equal(got, replacement) {
			t.Errorf("Get after overwrite = %q, want %q", got, replacement)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, location); err != nil {
			t.Fatalf("Delete: %v", err)
		}

		if _, err := store.Get(ctx, location); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
		}
		if _, err := store.Head(ctx, location); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Head after Delete error = %v, want ErrNotFound", err)
		}
		if err := store.Delete(ctx, location); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Delete (absent) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		if _, err := store.Get(ctx, core.MustParsePath("never/written")); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Get (absent) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("RootPathRejected", func(t *testing.T) {
		var root core.Path
		if _, err := store.Put(ctx, root, bytes.NewReader(content)); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("Put (root) error = %v, want ErrInvalidInput", err)
		}
		if _, err := store.CreateMultipart(ctx, root); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("CreateMultipart (root) error = %v, want ErrInvalidInput", err)
		}

		entries, err := core.CollectList(ctx, store, root)
		if err != nil {
			t.Fatalf("List after rejected root writes: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("List returned %d objects after rejected root writes, want 0", len(entries))
		}
	})
}

// TestRanges covers GetRange windows and bounds enforcement. Assumes an
// empty store.
func TestRanges(t *testing.T, store core.Store, _ Config) {
	ctx := context.Background()
	location := core.MustParsePath("range/object.bin")
	content := []byte("0123456789") // 10 bytes

	if _, err := store.Put(ctx, location, bytes.NewReader(content)); err != nil {
		t.Fatalf("Put: setup failed: %v", err)
	}

	t.Run("Window", func(t *testing.T) {
		got, err := store.GetRange(ctx, location, 3, 4)
		if err != nil {
			t.Fatalf("GetRange(3, 4): %v", err)
		}
		if want := content[3:7]; !bytes.Equal(got, want) {
			t.Errorf("GetRange(3, 4) = %q, want %q", got, want)
		}
	})

	t.Run("FullObject", func(t *testing.T) {
		got, err := store.GetRange(ctx, location, 0, int64(len(content)))
		if err != nil {
			t.Fatalf("GetRange(0, %d): %v", len(content), err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("GetRange full = %q, want %q", got, content)
		}
	})

	t.Run("ExceedsBounds", func(t *testing.T) {
		cases := []struct{ offset, length int64 }{
			{3, 8},     // runs past the end
			{200, 100}, // starts past the end
			{0, 0},     // empty window
			{-1, 4},    // negative offset
		}
		for _, c := range cases {
			if _, err := store.GetRange(ctx, location, c.offset, c.length); !errors.Is(err, core.ErrInvalidRange) {
				t.Errorf("GetRange(%d, %d) error = %v, want ErrInvalidRange", c.offset, c.length, err)
			}
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := store.GetRange(ctx, core.MustParsePath("absent"), 0, 1); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("GetRange (absent) error = %v, want ErrNotFound", err)
		}
	})
}
