package billy_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/objstore/billy"
	"github.com/jmgilman/objstore/core"
	"github.com/jmgilman/objstore/storetest"
)

func TestSuiteMemory(t *testing.T) {
	storetest.TestSuite(t, func(t *testing.T) core.Store {
		return billy.NewMemory()
	})
}

func TestSuiteLocal(t *testing.T) {
	storetest.TestSuite(t, func(t *testing.T) core.Store {
		return billy.NewLocal(t.TempDir())
	})
}

func TestType(t *testing.T) {
	assert.Equal(t, core.StoreTypeMemory, billy.NewMemory().Type())
	assert.Equal(t, core.StoreTypeLocal, billy.NewLocal(t.TempDir()).Type())
}

func TestUnwrap(t *testing.T) {
	ctx := context.Background()
	store := billy.NewMemory()

	_, err := store.Put(ctx, core.MustParsePath("repo/README.md"), bytes.NewReader([]byte("cats")))
	require.NoError(t, err)

	// The object is reachable through the raw billy filesystem.
	bfs := store.Unwrap()
	require.NotNil(t, bfs)
	info, err := bfs.Stat("repo/README.md")
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())
}

func TestSessionsInvisible(t *testing.T) {
	ctx := context.Background()
	store := billy.NewMemory()

	u, err := store.CreateMultipart(ctx, core.MustParsePath("big.bin"))
	require.NoError(t, err)
	_, err = store.PutPart(ctx, u, 1, []byte("part one"))
	require.NoError(t, err)

	metas, err := core.CollectList(ctx, store, core.Path{})
	require.NoError(t, err)
	assert.Empty(t, metas)

	result, err := store.ListWithDelimiter(ctx, core.Path{})
	require.NoError(t, err)
	assert.Empty(t, result.Objects)
	assert.Empty(t, result.CommonPrefixes)

	require.NoError(t, store.AbortMultipart(ctx, u))
}
