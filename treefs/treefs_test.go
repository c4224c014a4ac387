package treefs_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/objstore/core"
	"github.com/jmgilman/objstore/memory"
	"github.com/jmgilman/objstore/treefs"
)

func newFS(t *testing.T, opts ...treefs.Option) *treefs.FileSystem {
	t.Helper()
	return treefs.New(memory.New(), opts...)
}

func putAll(t *testing.T, fs *treefs.FileSystem, paths ...string) {
	t.Helper()
	ctx := context.Background()
	for _, p := range paths {
		_, err := fs.Store().Put(ctx, core.MustParsePath(p), bytes.NewReader([]byte("cats")))
		require.NoError(t, err)
	}
}

func locations(infos []treefs.FileInfo) []string {
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		s := info.Location.String()
		if info.IsDir {
			s += "/"
		}
		out = append(out, s)
	}
	return out
}

func TestGetFileInfo(t *testing.T) {
	ctx := context.Background()
	fs := newFS(t)
	putAll(t, fs, "a/b/c.txt")

	t.Run("File", func(t *testing.T) {
		info, err := fs.GetFileInfo(ctx, core.MustParsePath("a/b/c.txt"))
		require.NoError(t, err)
		assert.False(t, info.IsDir)
		assert.Equal(t, int64(4), info.Size)
		assert.False(t, info.LastModified.IsZero())
	})

	t.Run("SimulatedDirectory", func(t *testing.T) {
		for _, p := range []string{"a", "a/b"} {
			info, err := fs.GetFileInfo(ctx, core.MustParsePath(p))
			require.NoError(t, err, p)
			assert.True(t, info.IsDir, p)
		}
	})

	t.Run("RootIsAlwaysADirectory", func(t *testing.T) {
		info, err := fs.GetFileInfo(ctx, core.Path{})
		require.NoError(t, err)
		assert.True(t, info.IsDir)

		empty := newFS(t)
		info, err = empty.GetFileInfo(ctx, core.Path{})
		require.NoError(t, err)
		assert.True(t, info.IsDir)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := fs.GetFileInfo(ctx, core.MustParsePath("a/missing"))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestGetFileInfoSelector(t *testing.T) {
	ctx := context.Background()
	fs := newFS(t)
	putAll(t, fs, "a/b/c.txt", "a/b/d.txt", "a/e.txt")

	t.Run("RecursiveFromRoot", func(t *testing.T) {
		infos, err := fs.GetFileInfoSelector(ctx, treefs.Selector{Recursive: true})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"a/",
			"a/b/",
			"a/b/c.txt",
			"a/b/d.txt",
			"a/e.txt",
		}, locations(infos))
	})

	t.Run("SingleLevel", func(t *testing.T) {
		infos, err := fs.GetFileInfoSelector(ctx, treefs.Selector{Base: core.MustParsePath("a")})
		require.NoError(t, err)
		assert.Equal(t, []string{"a/b/", "a/e.txt"}, locations(infos))
	})

	t.Run("MissingBase", func(t *testing.T) {
		_, err := fs.GetFileInfoSelector(ctx, treefs.Selector{Base: core.MustParsePath("nope")})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("MissingBaseAllowed", func(t *testing.T) {
		infos, err := fs.GetFileInfoSelector(ctx, treefs.Selector{
			Base:          core.MustParsePath("nope"),
			AllowNotFound: true,
		})
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("BaseIsAFile", func(t *testing.T) {
		_, err := fs.GetFileInfoSelector(ctx, treefs.Selector{Base: core.MustParsePath("a/e.txt")})
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("EmptyStoreFromRoot", func(t *testing.T) {
		infos, err := newFS(t).GetFileInfoSelector(ctx, treefs.Selector{Recursive: true})
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("BaseProbeFailurePropagates", func(t *testing.T) {
		fs := treefs.New(&headFailStore{Store: memory.New()})
		_, err := fs.GetFileInfoSelector(ctx, treefs.Selector{
			Base:          core.MustParsePath("nope"),
			AllowNotFound: true,
		})
		assert.ErrorIs(t, err, core.ErrUnavailable)
	})
}

// headFailStore fails every Head call so tests can observe how the
// adapter reacts to backend errors on its metadata probes.
type headFailStore struct {
	core.Store
}

func (s *headFailStore) Head(_ context.Context, location core.Path) (core.ObjectMeta, error) {
	return core.ObjectMeta{}, core.OpError("head", location, core.ErrUnavailable)
}

func TestCreateDir(t *testing.T) {
	ctx := context.Background()
	fs := newFS(t)

	// Directories materialize through objects, so nothing to observe.
	require.NoError(t, fs.CreateDir(ctx, core.MustParsePath("a/b")))

	_, err := fs.GetFileInfo(ctx, core.MustParsePath("a/b"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteDir(t *testing.T) {
	ctx := context.Background()

	t.Run("DeletesAllChildren", func(t *testing.T) {
		fs := newFS(t)
		putAll(t, fs, "a/b/c.txt", "a/b/d.txt", "a/e.txt", "top.txt")

		require.NoError(t, fs.DeleteDir(ctx, core.MustParsePath("a/b")))

		metas, err := core.CollectList(ctx, fs.Store(), core.Path{})
		require.NoError(t, err)
		require.Len(t, metas, 2)
		assert.Equal(t, "a/e.txt", metas[0].Location.String())
		assert.Equal(t, "top.txt", metas[1].Location.String())
	})

	t.Run("MissingDirectorySucceeds", func(t *testing.T) {
		fs := newFS(t)
		assert.NoError(t, fs.DeleteDir(ctx, core.MustParsePath("ghost")))
	})

	t.Run("RootRejected", func(t *testing.T) {
		fs := newFS(t)
		assert.ErrorIs(t, fs.DeleteDir(ctx, core.Path{}), core.ErrInvalidInput)
	})

	t.Run("ContentsFromRoot", func(t *testing.T) {
		fs := newFS(t)
		putAll(t, fs, "a/b.txt", "c.txt")

		require.NoError(t, fs.DeleteDirContents(ctx, core.Path{}))

		metas, err := core.CollectList(ctx, fs.Store(), core.Path{})
		require.NoError(t, err)
		assert.Empty(t, metas)
	})
}

func TestDeleteFile(t *testing.T) {
	ctx := context.Background()
	fs := newFS(t)
	putAll(t, fs, "a.txt")

	require.NoError(t, fs.DeleteFile(ctx, core.MustParsePath("a.txt")))
	assert.ErrorIs(t, fs.DeleteFile(ctx, core.MustParsePath("a.txt")), core.ErrNotFound)
}

func TestMove(t *testing.T) {
	ctx := context.Background()

	t.Run("File", func(t *testing.T) {
		fs := newFS(t)
		putAll(t, fs, "src.txt")

		require.NoError(t, fs.Move(ctx, core.MustParsePath("src.txt"), core.MustParsePath("dst.txt")))

		_, err := fs.GetFileInfo(ctx, core.MustParsePath("src.txt"))
		assert.ErrorIs(t, err, core.ErrNotFound)
		info, err := fs.GetFileInfo(ctx, core.MustParsePath("dst.txt"))
		require.NoError(t, err)
		assert.False(t, info.IsDir)
	})

	t.Run("Directory", func(t *testing.T) {
		fs := newFS(t)
		putAll(t, fs, "old/x.txt", "old/sub/y.txt", "keep.txt")

		require.NoError(t, fs.Move(ctx, core.MustParsePath("old"), core.MustParsePath("new")))

		metas, err := core.CollectList(ctx, fs.Store(), core.Path{})
		require.NoError(t, err)
		got := make([]string, 0, len(metas))
		for _, meta := range metas {
			got = append(got, meta.Location.String())
		}
		assert.ElementsMatch(t, []string{"keep.txt", "new/x.txt", "new/sub/y.txt"}, got)
	})

	t.Run("Missing", func(t *testing.T) {
		fs := newFS(t)
		err := fs.Move(ctx, core.MustParsePath("ghost"), core.MustParsePath("dst"))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestCopyFile(t *testing.T) {
	ctx := context.Background()
	fs := newFS(t)
	putAll(t, fs, "src.txt")

	require.NoError(t, fs.CopyFile(ctx, core.MustParsePath("src.txt"), core.MustParsePath("dst.txt")))

	for _, p := range []string{"src.txt", "dst.txt"} {
		info, err := fs.GetFileInfo(ctx, core.MustParsePath(p))
		require.NoError(t, err, p)
		assert.Equal(t, int64(4), info.Size, p)
	}
}
