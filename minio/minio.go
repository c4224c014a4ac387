package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jmgilman/objstore/core"
	"github.com/jmgilman/objstore/minio/internal/errs"
)

// MinioStore implements core.Store for MinIO/S3-compatible storage.
// Note: The name follows the package naming convention (LocalStore,
// MemoryStore, etc.) used across the store implementations.
//
//nolint:revive // MinioStore name is intentional to match naming pattern across store implementations
type MinioStore struct {
	client *minio.Client
	core   minio.Core
	bucket string
	prefix string // Optional prefix for all keys
}

var _ core.Store = (*MinioStore)(nil)

// New creates a MinIO-backed store.
// Returns an error if the configuration is invalid or the client
// cannot be constructed.
func New(cfg Config) (*MinioStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}

	return &MinioStore{
		client: client,
		core:   minio.Core{Client: client},
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Type implements core.Store.
func (m *MinioStore) Type() core.StoreType {
	return core.StoreTypeRemote
}

// key maps an object location to its bucket key.
func (m *MinioStore) key(location core.Path) string {
	if m.prefix == "" {
		return location.String()
	}
	if location.IsRoot() {
		return m.prefix
	}
	return m.prefix + core.Delimiter + location.String()
}

// locationOf maps a bucket key back to an object location.
func (m *MinioStore) locationOf(key string) (core.Path, error) {
	if m.prefix != "" {
		key = strings.TrimPrefix(key, m.prefix+core.Delimiter)
	}
	return core.ParsePath(key)
}

// Head implements core.Reader.
func (m *MinioStore) Head(ctx context.Context, location core.Path) (core.ObjectMeta, error) {
	info, err := m.client.StatObject(ctx, m.bucket, m.key(location), minio.StatObjectOptions{})
	if err != nil {
		return core.ObjectMeta{}, core.OpError("head", location, errs.Translate(err))
	}
	return m.metaFor(location, info), nil
}

// Get implements core.Reader. The returned reader streams the object
// body; it does not buffer the object in memory.
func (m *MinioStore) Get(ctx context.Context, location core.Path) (io.ReadCloser, error) {
	// GetObject defers the request until first read, which would
	// surface a missing object as a read error instead.
	if _, err := m.client.StatObject(ctx, m.bucket, m.key(location), minio.StatObjectOptions{}); err != nil {
		return nil, core.OpError("get", location, errs.Translate(err))
	}

	obj, err := m.client.GetObject(ctx, m.bucket, m.key(location), minio.GetObjectOptions{})
	if err != nil {
		return nil, core.OpError("get", location, errs.Translate(err))
	}
	return obj, nil
}

// GetRange implements core.Reader. The requested range must lie
// entirely within the object; S3 would otherwise clamp a long read at
// the object's end.
func (m *MinioStore) GetRange(ctx context.Context, location core.Path, offset, length int64) ([]byte, error) {
	info, err := m.client.StatObject(ctx, m.bucket, m.key(location), minio.StatObjectOptions{})
	if err != nil {
		return nil, core.OpError("get_range", location, errs.Translate(err))
	}
	if offset < 0 || length <= 0 || offset+length > info.Size {
		return nil, core.OpErrorf("get_range", location, "%w: [%d, %d) of %d bytes",
			core.ErrInvalidRange, offset, offset+length, info.Size)
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(offset, offset+length-1); err != nil {
		return nil, core.OpErrorf("get_range", location, "%w: %v", core.ErrInvalidRange, err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, m.key(location), opts)
	if err != nil {
		return nil, core.OpError("get_range", location, errs.Translate(err))
	}
	defer obj.Close()

	buf := make([]byte, length)
	if _, err := io.ReadFull(obj, buf); err != nil {
		return nil, core.OpError("get_range", location, errs.Translate(err))
	}
	return buf, nil
}

// Put implements core.Writer. Readers of unknown length stream via the
// SDK's internal multipart upload.
func (m *MinioStore) Put(ctx context.Context, location core.Path, r io.Reader) (core.ObjectMeta, error) {
	if location.IsRoot() {
		return core.ObjectMeta{}, core.OpErrorf("put", location, "%w: empty location", core.ErrInvalidInput)
	}

	info, err := m.client.PutObject(ctx, m.bucket, m.key(location), r, -1, minio.PutObjectOptions{})
	if err != nil {
		return core.ObjectMeta{}, core.OpError("put", location, errs.Translate(err))
	}

	meta := core.ObjectMeta{
		Location:     location,
		Size:         info.Size,
		LastModified: info.LastModified.UTC(),
		ETag:         strings.Trim(info.ETag, `"`),
	}
	if meta.LastModified.IsZero() {
		// Some servers omit Last-Modified on PUT responses.
		stat, err := m.client.StatObject(ctx, m.bucket, m.key(location), minio.StatObjectOptions{})
		if err == nil {
			meta.LastModified = stat.LastModified.UTC()
		}
	}
	return meta, nil
}

// Delete implements core.Writer. S3 deletes are idempotent, so the
// object is stat'd first to report a missing object as such.
func (m *MinioStore) Delete(ctx context.Context, location core.Path) error {
	if _, err := m.client.StatObject(ctx, m.bucket, m.key(location), minio.StatObjectOptions{}); err != nil {
		return core.OpError("delete", location, errs.Translate(err))
	}
	if err := m.client.RemoveObject(ctx, m.bucket, m.key(location), minio.RemoveObjectOptions{}); err != nil {
		return core.OpError("delete", location, errs.Translate(err))
	}
	return nil
}

// List implements core.Lister. Keys stream in lexicographic order as
// the server pages them.
func (m *MinioStore) List(ctx context.Context, prefix core.Path) <-chan core.ListEntry {
	out := make(chan core.ListEntry)

	go func() {
		defer close(out)

		// A key equal to the prefix itself matches but would be missed
		// by the delimited server prefix below.
		if !prefix.IsRoot() {
			info, err := m.client.StatObject(ctx, m.bucket, m.key(prefix), minio.StatObjectOptions{})
			switch {
			case err == nil:
				if !sendEntry(ctx, out, core.ListEntry{Meta: m.metaFor(prefix, info)}) {
					return
				}
			case !errors.Is(errs.Translate(err), core.ErrNotFound):
				sendEntry(ctx, out, core.ListEntry{Err: core.OpError("list", prefix, errs.Translate(err))})
				return
			}
		}

		for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
			Prefix:    m.listPrefix(prefix),
			Recursive: true,
		}) {
			if obj.Err != nil {
				sendEntry(ctx, out, core.ListEntry{Err: core.OpError("list", prefix, errs.Translate(obj.Err))})
				return
			}
			location, err := m.locationOf(obj.Key)
			if err != nil {
				sendEntry(ctx, out, core.ListEntry{Err: core.OpError("list", prefix, err)})
				return
			}
			if !sendEntry(ctx, out, core.ListEntry{Meta: m.metaFor(location, obj)}) {
				return
			}
		}
	}()

	return out
}

// ListWithDelimiter implements core.Lister.
func (m *MinioStore) ListWithDelimiter(ctx context.Context, prefix core.Path) (core.ListResult, error) {
	var result core.ListResult

	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    m.listPrefix(prefix),
		Recursive: false,
	}) {
		if obj.Err != nil {
			return core.ListResult{}, core.OpError("list_with_delimiter", prefix, errs.Translate(obj.Err))
		}

		if strings.HasSuffix(obj.Key, core.Delimiter) {
			location, err := m.locationOf(strings.TrimSuffix(obj.Key, core.Delimiter))
			if err != nil {
				return core.ListResult{}, core.OpError("list_with_delimiter", prefix, err)
			}
			result.CommonPrefixes = append(result.CommonPrefixes, location)
			continue
		}

		location, err := m.locationOf(obj.Key)
		if err != nil {
			return core.ListResult{}, core.OpError("list_with_delimiter", prefix, err)
		}
		result.Objects = append(result.Objects, m.metaFor(location, obj))
	}

	core.SortObjectMeta(result.Objects)
	core.SortPaths(result.CommonPrefixes)
	return result, nil
}

// listPrefix builds the server-side key prefix for a listing. The
// trailing delimiter keeps "foo" from matching "foobar".
func (m *MinioStore) listPrefix(prefix core.Path) string {
	key := m.key(prefix)
	if key == "" {
		return ""
	}
	return key + core.Delimiter
}

// Copy implements core.Mover. The copy happens server-side.
func (m *MinioStore) Copy(ctx context.Context, from, to core.Path) error {
	if err := m.copyObject(ctx, from, to); err != nil {
		return core.OpError("copy", from, err)
	}
	return nil
}

// CopyIfNotExists implements core.Mover. S3 offers no conditional
// server-side copy, so the existence check and the copy are separate
// steps; a concurrent writer can slip between them.
func (m *MinioStore) CopyIfNotExists(ctx context.Context, from, to core.Path) error {
	if _, err := m.client.StatObject(ctx, m.bucket, m.key(to), minio.StatObjectOptions{}); err == nil {
		return core.OpError("copy_if_not_exists", to, core.ErrAlreadyExists)
	}
	if err := m.copyObject(ctx, from, to); err != nil {
		return core.OpError("copy_if_not_exists", from, err)
	}
	return nil
}

// Rename implements core.Mover. S3 has no rename; this is a
// server-side copy followed by a delete of the source.
func (m *MinioStore) Rename(ctx context.Context, from, to core.Path) error {
	if err := m.copyObject(ctx, from, to); err != nil {
		return core.OpError("rename", from, err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, m.key(from), minio.RemoveObjectOptions{}); err != nil {
		return core.OpError("rename", from, errs.Translate(err))
	}
	return nil
}

// RenameIfNotExists implements core.Mover. Subject to the same
// check-then-act window as CopyIfNotExists.
func (m *MinioStore) RenameIfNotExists(ctx context.Context, from, to core.Path) error {
	if _, err := m.client.StatObject(ctx, m.bucket, m.key(to), minio.StatObjectOptions{}); err == nil {
		return core.OpError("rename_if_not_exists", to, core.ErrAlreadyExists)
	}
	if err := m.copyObject(ctx, from, to); err != nil {
		return core.OpError("rename_if_not_exists", from, err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, m.key(from), minio.RemoveObjectOptions{}); err != nil {
		return core.OpError("rename_if_not_exists", from, errs.Translate(err))
	}
	return nil
}

func (m *MinioStore) copyObject(ctx context.Context, from, to core.Path) error {
	_, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: m.key(to)},
		minio.CopySrcOptions{Bucket: m.bucket, Object: m.key(from)},
	)
	return errs.Translate(err)
}

func (m *MinioStore) metaFor(location core.Path, info minio.ObjectInfo) core.ObjectMeta {
	return core.ObjectMeta{
		Location:     location,
		Size:         info.Size,
		LastModified: info.LastModified.UTC(),
		ETag:         strings.Trim(info.ETag, `"`),
	}
}

// sendEntry delivers an entry unless the context is done first.
func sendEntry(ctx context.Context, out chan<- core.ListEntry, entry core.ListEntry) bool {
	select {
	case out <- entry:
		return true
	case <-ctx.Done():
		return false
	}
}
