package storetest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jmgilman/objstore/core"
)

// partOf produces the content of one test part: a fill byte repeated to
// the configured minimum part size (at least two bytes, so the default
// config exercises the documented "AA"/"BB"/"CC" shape).
func partOf(fill byte, config Config) []byte {
	size := config.MinPartSize
	if size < 2 {
		size = 2
	}
	return bytes.Repeat([]byte{fill}, int(size))
}

// TestMultipart covers the staged-upload lifecycle: ordered parts,
// atomic completion, out-of-order rejection, and abort semantics.
// Assumes an empty store.
func TestMultipart(t *testing.T, store core.Store, config Config) {
	ctx := context.Background()

	t.Run("CompleteConcatenatesParts", func(t *testing.T) {
		location := core.MustParsePath("multipart/assembled")
		u, err := store.CreateMultipart(ctx, location)
		if err != nil {
			t.Fatalf("CreateMultipart: %v", err)
		}

		var want []byte
		for i, fill := range []byte{'A', 'B', 'C'} {
			data := partOf(fill, config)
			part, err := store.PutPart(ctx, u, i+1, data)
			if err != nil {
				t.Fatalf("PutPart(%d): %v", i+1, err)
			}
			if part.Number != i+1 {
				t.Errorf("PutPart(%d) number = %d", i+1, part.Number)
			}
			want = append(want, data...)
		}
		if len(u.Parts) != 3 {
			t.Fatalf("session tracked %d parts, want 3", len(u.Parts))
		}

		meta, err := store.CompleteMultipart(ctx, u)
		if err != nil {
			t.Fatalf("CompleteMultipart: %v", err)
		}
		if meta.Size != int64(len(want)) {
			t.Errorf("completed size = %d, want %d", meta.Size, len(want))
		}
		if got := readAll(t, store, location); !bytes.Equal(got, want) {
			t.Errorf("completed object differs: %d bytes, want %d", len(got), len(want))
		}
	})

	t.Run("OutOfOrderPartsRejected", func(t *testing.T) {
		location := core.MustParsePath("multipart/unordered")
		u, err := store.CreateMultipart(ctx, location)
		if err != nil {
			t.Fatalf("CreateMultipart: %v", err)
		}
		defer func() { _ = store.AbortMultipart(ctx, u) }()

		if _, err := store.PutPart(ctx, u, 2, partOf('X', config)); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("PutPart(2) first error = %v, want ErrInvalidInput", err)
		}
		if _, err := store.PutPart(ctx, u, 1, partOf('X', config)); err != nil {
			t.Fatalf("PutPart(1): %v", err)
		}
		if _, err := store.PutPart(ctx, u, 1, partOf('Y', config)); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("duplicate PutPart(1) error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("CompleteAfterAbortFails", func(t *testing.T) {
		location := core.MustParsePath("multipart/aborted")
		u, err := store.CreateMultipart(ctx, location)
		if err != nil {
			t.Fatalf("CreateMultipart: %v", err)
		}
		if _, err := store.PutPart(ctx, u, 1, partOf('Z', config)); err != nil {
			t.Fatalf("PutPart: %v", err)
		}

		if err := store.AbortMultipart(ctx, u); err != nil {
			t.Fatalf("AbortMultipart: %v", err)
		}
		if _, err := store.CompleteMultipart(ctx, u); err == nil {
			t.Error("CompleteMultipart after abort succeeded, want error")
		}
		if _, err := store.Get(ctx, location); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Get after abort error = %v, want ErrNotFound", err)
		}
		// Abort is the only cancellation path and must stay safe to
		// repeat on cleanup paths.
		if err := store.AbortMultipart(ctx, u); err != nil {
			t.Errorf("second AbortMultipart: %v", err)
		}
	})
}
