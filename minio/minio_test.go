package minio

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	minioclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/objstore/core"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing bucket",
			cfg:     Config{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk"},
			wantErr: "bucket is required",
		},
		{
			name:    "missing endpoint",
			cfg:     Config{Bucket: "b", AccessKey: "ak", SecretKey: "sk"},
			wantErr: "endpoint is required",
		},
		{
			name:    "missing access key",
			cfg:     Config{Bucket: "b", Endpoint: "localhost:9000", SecretKey: "sk"},
			wantErr: "access key is required",
		},
		{
			name:    "missing secret key",
			cfg:     Config{Bucket: "b", Endpoint: "localhost:9000", AccessKey: "ak"},
			wantErr: "secret key is required",
		},
		{
			name: "complete connection config",
			cfg:  Config{Bucket: "b", Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestKeyMapping(t *testing.T) {
	t.Run("no prefix", func(t *testing.T) {
		store := &MinioStore{bucket: "b"}
		assert.Equal(t, "a/b/c.txt", store.key(core.MustParsePath("a/b/c.txt")))
		assert.Equal(t, "", store.key(core.Path{}))
		assert.Equal(t, "", store.listPrefix(core.Path{}))
		assert.Equal(t, "a/", store.listPrefix(core.MustParsePath("a")))
	})

	t.Run("with prefix", func(t *testing.T) {
		store := &MinioStore{bucket: "b", prefix: "tenant-1"}
		assert.Equal(t, "tenant-1/a/b.txt", store.key(core.MustParsePath("a/b.txt")))
		assert.Equal(t, "tenant-1", store.key(core.Path{}))
		assert.Equal(t, "tenant-1/", store.listPrefix(core.Path{}))
		assert.Equal(t, "tenant-1/a/", store.listPrefix(core.MustParsePath("a")))
	})

	t.Run("round trip", func(t *testing.T) {
		store := &MinioStore{bucket: "b", prefix: "tenant-1"}
		location := core.MustParsePath("a/b.txt")

		back, err := store.locationOf(store.key(location))
		require.NoError(t, err)
		assert.True(t, location.Equal(back))
	})
}

func TestType(t *testing.T) {
	store := &MinioStore{bucket: "b"}
	assert.Equal(t, core.StoreTypeRemote, store.Type())
}

// staticStatusTransport answers every request with a fixed status code,
// so client error paths can be exercised without a server.
type staticStatusTransport struct {
	status int
}

func (t *staticStatusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: t.status,
		Status:     http.StatusText(t.status),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func TestListSurfacesProbeErrors(t *testing.T) {
	client, err := minioclient.New("localhost:9000", &minioclient.Options{
		Creds:     credentials.NewStaticV4("ak", "sk", ""),
		Transport: &staticStatusTransport{status: http.StatusForbidden},
	})
	require.NoError(t, err)

	store, err := New(Config{Bucket: "bkt", Client: client})
	require.NoError(t, err)

	entry, ok := <-store.List(context.Background(), core.MustParsePath("some/key"))
	require.True(t, ok, "expected an error entry, channel closed instead")
	require.Error(t, entry.Err)
	assert.ErrorIs(t, entry.Err, core.ErrPermission)
	assert.NotErrorIs(t, entry.Err, core.ErrNotFound)
}
