package memory

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/jmgilman/objstore/core"
)

// object pairs an immutable content snapshot with its metadata.
type object struct {
	data []byte
	meta core.ObjectMeta
}

// MemoryStore implements core.Store backed by a process-local map.
// Note: the name follows the package naming convention (LocalStore,
// MinioStore, etc.) used throughout the objstore library to distinguish
// between implementations.
//
//nolint:revive // MemoryStore name is intentional to match naming pattern across store implementations
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]object
	uploads map[string]*session
}

// New creates an empty in-memory store.
func New() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]object),
		uploads: make(map[string]*session),
	}
}

// etag returns the opaque version token for a content snapshot.
func etag(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Head returns the metadata for the object at location.
func (m *MemoryStore) Head(_ context.Context, location core.Path) (core.ObjectMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[location.String()]
	if !ok {
		return core.ObjectMeta{}, core.OpError("head", location, core.ErrNotFound)
	}
	return obj.meta, nil
}

// Get opens the object at location for reading. The returned stream is
// a snapshot: concurrent overwrites do not affect it.
func (m *MemoryStore) Get(_ context.Context, location core.Path) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[location.String()]
	if !ok {
		return nil, core.OpError("get", location, core.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// GetRange returns the bytes [offset, offset+length) of the object.
func (m *MemoryStore) GetRange(_ context.Context, location core.Path, offset, length int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[location.String()]
	if !ok {
		return nil, core.OpError("get_range", location, core.ErrNotFound)
	}
	if offset < 0 || length <= 0 || offset+length > int64(len(obj.data)) {
		return nil, core.OpErrorf("get_range", location, "%w: [%d, %d) of %d bytes",
			core.ErrInvalidRange, offset, offset+length, len(obj.data))
	}

	window := make([]byte, length)
	copy(window, obj.data[offset:offset+length])
	return window, nil
}

// Put stores the contents of r at location, overwriting any existing
// object. The swap happens under the lock, so readers observe either
// the old or the new content, never a partial write.
func (m *MemoryStore) Put(_ context.Context, location core.Path, r io.Reader) (core.ObjectMeta, error) {
	if location.IsRoot() {
		return core.ObjectMeta{}, core.OpErrorf("put", location, "%w: empty location", core.ErrInvalidInput)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return core.ObjectMeta{}, core.OpError("put", location, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocked(location, data), nil
}

// putLocked installs a content snapshot. Callers must hold m.mu.
func (m *MemoryStore) putLocked(location core.Path, data []byte) core.ObjectMeta {
	meta := core.ObjectMeta{
		Location:     location,
		Size:         int64(len(data)),
		LastModified: time.Now().UTC(),
		ETag:         etag(data),
	}
	m.objects[location.String()] = object{data: data, meta: meta}
	return meta
}

// Delete removes the object at location.
func (m *MemoryStore) Delete(_ context.Context, location core.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[location.String()]; !ok {
		return core.OpError("delete", location, core.ErrNotFound)
	}
	delete(m.objects, location.String())
	return nil
}

// List lazily enumerates objects under prefix in segment-wise order.
// The result set is snapshotted under the lock before any entry is
// sent, so a listing is never torn by concurrent mutations.
func (m *MemoryStore) List(ctx context.Context, prefix core.Path) <-chan core.ListEntry {
	metas := m.snapshot(prefix)

	out := make(chan core.ListEntry)
	go func() {
		defer close(out)
		for _, meta := range metas {
			select {
			case out <- core.ListEntry{Meta: meta}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// ListWithDelimiter enumerates a single level below prefix.
func (m *MemoryStore) ListWithDelimiter(_ context.Context, prefix core.Path) (core.ListResult, error) {
	return core.DelimitedList(prefix, m.snapshot(prefix)), nil
}

// snapshot returns the sorted metadata of all objects under prefix.
func (m *MemoryStore) snapshot(prefix core.Path) []core.ObjectMeta {
	m.mu.Lock()
	defer m.mu.Unlock()

	var metas []core.ObjectMeta
	for _, obj := range m.objects {
		if obj.meta.Location.HasPrefix(prefix) {
			metas = append(metas, obj.meta)
		}
	}
	core.SortObjectMeta(metas)
	return metas
}

// Copy copies the object at src to dst, overwriting dst.
func (m *MemoryStore) Copy(_ context.Context, src, dst core.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[src.String()]
	if !ok {
		return core.OpError("copy", src, core.ErrNotFound)
	}
	m.putLocked(dst, obj.data)
	return nil
}

// CopyIfNotExists copies src to dst, failing ErrAlreadyExists when dst
// is occupied. The check and the write share the lock, so the
// condition is atomic with respect to concurrent writers.
func (m *MemoryStore) CopyIfNotExists(_ context.Context, src, dst core.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[src.String()]
	if !ok {
		return core.OpError("copy_if_not_exists", src, core.ErrNotFound)
	}
	if _, occupied := m.objects[dst.String()]; occupied {
		return core.OpError("copy_if_not_exists", dst, core.ErrAlreadyExists)
	}
	m.putLocked(dst, obj.data)
	return nil
}

// Rename moves src to dst, overwriting dst.
func (m *MemoryStore) Rename(_ context.Context, src, dst core.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[src.String()]
	if !ok {
		return core.OpError("rename", src, core.ErrNotFound)
	}
	m.putLocked(dst, obj.data)
	delete(m.objects, src.String())
	return nil
}

// RenameIfNotExists moves src to dst, failing ErrAlreadyExists when dst
// is occupied and leaving both objects unchanged on failure. Atomic
// under the store lock.
func (m *MemoryStore) RenameIfNotExists(_ context.Context, src, dst core.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[src.String()]
	if !ok {
		return core.OpError("rename_if_not_exists", src, core.ErrNotFound)
	}
	if _, occupied := m.objects[dst.String()]; occupied {
		return core.OpError("rename_if_not_exists", dst, core.ErrAlreadyExists)
	}
	m.putLocked(dst, obj.data)
	delete(m.objects, src.String())
	return nil
}

// Type returns StoreTypeMemory.
func (m *MemoryStore) Type() core.StoreType {
	return core.StoreTypeMemory
}

// Compile-time interface check.
var _ core.Store = (*MemoryStore)(nil)
