package local_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/objstore/core"
	"github.com/jmgilman/objstore/local"
	"github.com/jmgilman/objstore/storetest"
)

func newStore(t *testing.T) *local.LocalStore {
	t.Helper()
	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSuite(t *testing.T) {
	storetest.TestSuite(t, func(t *testing.T) core.Store {
		return newStore(t)
	})
}

func TestNew(t *testing.T) {
	t.Run("EmptyRoot", func(t *testing.T) {
		_, err := local.New("")
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("CreatesRoot", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "store")
		store, err := local.New(root)
		require.NoError(t, err)
		assert.DirExists(t, store.Root())
	})
}

func TestType(t *testing.T) {
	store := newStore(t)
	assert.Equal(t, core.StoreTypeLocal, store.Type())
}

func TestStagingFilesInvisible(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Put(ctx, core.MustParsePath("data/live.txt"), bytes.NewReader([]byte("cats")))
	require.NoError(t, err)

	// A leftover staging file, as a crashed writer would leave behind.
	stray := filepath.Join(store.Root(), "data", ".objstore-tmp-crashed")
	require.NoError(t, os.WriteFile(stray, []byte("junk"), 0o644))

	metas, err := core.CollectList(ctx, store, core.Path{})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "data/live.txt", metas[0].Location.String())

	result, err := store.ListWithDelimiter(ctx, core.MustParsePath("data"))
	require.NoError(t, err)
	require.Len(t, result.Objects, 1)
	assert.Equal(t, "data/live.txt", result.Objects[0].Location.String())
}

func TestEmptyDirectoryNotAPrefix(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	location := core.MustParsePath("a/b/c.txt")
	_, err := store.Put(ctx, location, bytes.NewReader([]byte("cats")))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, location))

	result, err := store.ListWithDelimiter(ctx, core.Path{})
	require.NoError(t, err)
	assert.Empty(t, result.Objects)
	assert.Empty(t, result.CommonPrefixes)
}

func TestDeleteDirectoryPathNotFound(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Put(ctx, core.MustParsePath("a/b/c.txt"), bytes.NewReader([]byte("cats")))
	require.NoError(t, err)

	// "a/b" exists on disk as a directory but is not an object.
	err = store.Delete(ctx, core.MustParsePath("a/b"))
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = store.Head(ctx, core.MustParsePath("a/b"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListPrefixNamesObject(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	location := core.MustParsePath("solo.txt")
	_, err := store.Put(ctx, location, bytes.NewReader([]byte("cats")))
	require.NoError(t, err)

	metas, err := core.CollectList(ctx, store, location)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, location, metas[0].Location)
}

func TestPutIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	location := core.MustParsePath("swap.txt")
	_, err := store.Put(ctx, location, bytes.NewReader([]byte("first")))
	require.NoError(t, err)

	rc, err := store.Get(ctx, location)
	require.NoError(t, err)
	defer rc.Close()

	_, err = store.Put(ctx, location, bytes.NewReader([]byte("second version")))
	require.NoError(t, err)

	// The reader opened before the overwrite still sees the old bytes.
	buf := make([]byte, 5)
	_, err = rc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "first", string(buf))
}

func TestMultipartSessionInvisible(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	u, err := store.CreateMultipart(ctx, core.MustParsePath("big.bin"))
	require.NoError(t, err)
	_, err = store.PutPart(ctx, u, 1, []byte("part one"))
	require.NoError(t, err)

	metas, err := core.CollectList(ctx, store, core.Path{})
	require.NoError(t, err)
	assert.Empty(t, metas)

	require.NoError(t, store.AbortMultipart(ctx, u))
}
