package minio

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jmgilman/objstore/core"
	"github.com/jmgilman/objstore/storetest"
)

// setupMinIOContainer starts a MinIO container and returns endpoint and cleanup function.
func setupMinIOContainer(t *testing.T) (string, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
	}

	minioC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start MinIO container")

	endpoint, err := minioC.Endpoint(ctx, "")
	require.NoError(t, err, "failed to get container endpoint")

	cleanup := func() {
		_ = minioC.Terminate(ctx)
	}

	return endpoint, cleanup
}

func newClient(t *testing.T, endpoint string) *minio.Client {
	t.Helper()

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err, "failed to create MinIO client")
	return client
}

// setupStore creates a store over a fresh bucket so tests do not see
// each other's objects.
func setupStore(t *testing.T, endpoint string) *MinioStore {
	t.Helper()

	ctx := context.Background()
	client := newClient(t, endpoint)

	bucket := "suite-" + uuid.NewString()
	require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}),
		"failed to create test bucket")

	store, err := New(Config{Client: client, Bucket: bucket})
	require.NoError(t, err, "failed to create store")
	return store
}

// TestMinioConformance runs the conformance suite against a real
// server with the S3 part-size floor.
func TestMinioConformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	endpoint, cleanup := setupMinIOContainer(t)
	defer cleanup()

	storetest.TestSuiteWithConfig(t, func(t *testing.T) core.Store {
		return setupStore(t, endpoint)
	}, storetest.S3Config())
}

// TestPrefixIsolation verifies that two stores sharing a bucket under
// different key prefixes do not see each other's objects.
func TestPrefixIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	endpoint, cleanup := setupMinIOContainer(t)
	defer cleanup()

	ctx := context.Background()
	client := newClient(t, endpoint)
	bucket := "shared-" + uuid.NewString()
	require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))

	one, err := New(Config{Client: client, Bucket: bucket, Prefix: "tenant-1"})
	require.NoError(t, err)
	two, err := New(Config{Client: client, Bucket: bucket, Prefix: "tenant-2"})
	require.NoError(t, err)

	_, err = one.Put(ctx, core.MustParsePath("data.txt"), bytes.NewReader([]byte("cats")))
	require.NoError(t, err)

	_, err = two.Head(ctx, core.MustParsePath("data.txt"))
	assert.ErrorIs(t, err, core.ErrNotFound)

	metas, err := core.CollectList(ctx, two, core.Path{})
	require.NoError(t, err)
	assert.Empty(t, metas)

	metas, err = core.CollectList(ctx, one, core.Path{})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "data.txt", metas[0].Location.String())
}

// TestMissingBucket verifies the NoSuchBucket translation.
func TestMissingBucket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	endpoint, cleanup := setupMinIOContainer(t)
	defer cleanup()

	ctx := context.Background()
	store, err := New(Config{Client: newClient(t, endpoint), Bucket: "no-such-bucket"})
	require.NoError(t, err, "creating a store over a missing bucket should succeed")

	_, err = store.Head(ctx, core.MustParsePath("test.txt"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}
