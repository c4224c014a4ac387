package core

import (
	"context"
	"io"
	"time"
)

// StoreType represents the underlying type of store implementation.
type StoreType int

const (
	// StoreTypeUnknown indicates the store type is unknown or unspecified.
	StoreTypeUnknown StoreType = iota
	// StoreTypeLocal indicates a local-disk store.
	StoreTypeLocal
	// StoreTypeMemory indicates an in-memory store.
	StoreTypeMemory
	// StoreTypeRemote indicates a remote store (e.g. S3, cloud storage).
	StoreTypeRemote
)

// String returns a string representation of the StoreType.
func (t StoreType) String() string {
	switch t {
	case StoreTypeLocal:
		return "local"
	case StoreTypeMemory:
		return "memory"
	case StoreTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ObjectMeta holds metadata for an object produced by Put, Head, or a
// listing. It is read-only to callers.
type ObjectMeta struct {
	// Location is the object's full path within the store.
	Location Path

	// Size is the object's size in bytes.
	Size int64

	// LastModified is the time the object was last written.
	LastModified time.Time

	// ETag is an opaque version token. It may be empty when the
	// backend does not produce one.
	ETag string
}

// ListEntry is one element of a lazy listing: either an ObjectMeta or
// the error that terminated the listing. Exactly one of the two is
// meaningful, matching the channel idiom of cloud SDK listings.
type ListEntry struct {
	Meta ObjectMeta
	Err  error
}

// ListResult is the outcome of a single-level (delimited) listing.
type ListResult struct {
	// Objects are the objects directly under the queried prefix,
	// sorted segment-wise.
	Objects []ObjectMeta

	// CommonPrefixes are the one-level-deeper synthetic directories,
	// sorted segment-wise. Every entry covers at least one object not
	// returned in Objects.
	CommonPrefixes []Path
}

// Part identifies one uploaded chunk of a multipart session.
type Part struct {
	// Number is the 1-based part number supplied by the caller.
	Number int

	// ETag is the backend's receipt for the uploaded part.
	ETag string
}

// MultipartUpload is the caller-owned state of a staged upload. It is
// created by CreateMultipart, extended by each PutPart, and consumed by
// CompleteMultipart or AbortMultipart. All operations on one session
// must be issued sequentially by a single logical owner; concurrent
// PutPart calls on the same session are a caller error.
type MultipartUpload struct {
	// ID is the backend-issued opaque session token.
	ID string

	// Location is the path the completed object will occupy.
	Location Path

	// Parts are the successfully uploaded parts in part-number order.
	Parts []Part
}

// Reader defines metadata and content read operations.
type Reader interface {
	// Head returns the metadata for the object at location, or
	// ErrNotFound if no object exists there.
	Head(ctx context.Context, location Path) (ObjectMeta, error)

	// Get opens the object at location for reading. The caller must
	// close the returned stream on every exit path. Fails ErrNotFound
	// if no object exists at location.
	Get(ctx context.Context, location Path) (io.ReadCloser, error)

	// GetRange returns exactly the bytes [offset, offset+length) of the
	// object at location. It fails ErrInvalidRange when the window
	// exceeds the object's bounds or length is not positive, and
	// ErrNotFound when the object is absent. Backends without native
	// partial reads must slice locally but still return only the
	// requested window.
	GetRange(ctx context.Context, location Path, offset, length int64) ([]byte, error)
}

// Writer defines write and delete operations.
type Writer interface {
	// Put writes the contents of r to location, overwriting any
	// existing object. The write is atomic: no reader observes a
	// partially written object, and once Put returns every Get
	// observes the new content.
	Put(ctx context.Context, location Path, r io.Reader) (ObjectMeta, error)

	// Delete removes the object at location. Deleting a non-existent
	// path fails ErrNotFound; callers needing idempotence must
	// tolerate this.
	Delete(ctx context.Context, location Path) error
}

// Lister defines flat-keyspace enumeration.
type Lister interface {
	// List lazily enumerates all objects whose path has prefix as a
	// segment-wise prefix. The sequence is finite but unordered in
	// general, terminated by channel close, and carries at most one
	// trailing entry with a non-nil Err. Consumers may stop early by
	// cancelling ctx; the listing is restartable by reissuing the call
	// (no cursor is exposed or persisted).
	List(ctx context.Context, prefix Path) <-chan ListEntry

	// ListWithDelimiter enumerates a single level: objects directly
	// under prefix plus one-level-deeper common prefixes. It does not
	// recurse.
	ListWithDelimiter(ctx context.Context, prefix Path) (ListResult, error)
}

// Mover defines intra-store copy and rename operations.
type Mover interface {
	// Copy copies the object at src to dst, overwriting dst if it
	// exists.
	Copy(ctx context.Context, src, dst Path) error

	// CopyIfNotExists copies src to dst, failing ErrAlreadyExists when
	// dst is occupied. See the backend's documentation for whether the
	// check is atomic with respect to concurrent writers.
	CopyIfNotExists(ctx context.Context, src, dst Path) error

	// Rename moves src to dst, overwriting dst if it exists. Backends
	// without a native move implement it as copy-then-delete.
	Rename(ctx context.Context, src, dst Path) error

	// RenameIfNotExists moves src to dst, failing ErrAlreadyExists when
	// dst is occupied and leaving both objects' content unchanged on
	// failure.
	RenameIfNotExists(ctx context.Context, src, dst Path) error
}

// Multipart defines the staged-upload lifecycle.
//
// Part numbers start at 1 and must be supplied in strictly increasing,
// contiguous order; backends reject violations with ErrInvalidInput.
// A session ends in exactly one of CompleteMultipart or AbortMultipart;
// afterwards the session token is invalid and further calls fail.
type Multipart interface {
	// CreateMultipart starts a staged upload targeting location.
	CreateMultipart(ctx context.Context, location Path) (*MultipartUpload, error)

	// PutPart uploads one chunk and appends it to u.Parts.
	PutPart(ctx context.Context, u *MultipartUpload, partNumber int, data []byte) (Part, error)

	// CompleteMultipart finalizes the session, atomically materializing
	// the object at u.Location from the parts in order.
	CompleteMultipart(ctx context.Context, u *MultipartUpload) (ObjectMeta, error)

	// AbortMultipart discards all uploaded parts. Cleanup is
	// best-effort and the call is safe after partial completion.
	AbortMultipart(ctx context.Context, u *MultipartUpload) error
}

// Store is the full capability contract every backend satisfies.
//
// Concurrency: implementations MUST be safe for concurrent use by
// multiple goroutines without external locking, except for the
// documented single-owner constraint on MultipartUpload sessions.
type Store interface {
	Reader
	Writer
	Lister
	Mover
	Multipart

	// Type returns the underlying store type, letting callers
	// introspect whether the store is disk-backed, in-memory, or
	// remote.
	Type() StoreType
}

// CollectList drains a List stream into a slice. It is a convenience
// for callers and tests that want the materialized listing; large
// keyspaces should consume the channel directly instead.
func CollectList(ctx context.Context, l Lister, prefix Path) ([]ObjectMeta, error) {
	var metas []ObjectMeta
	for entry := range l.List(ctx, prefix) {
		if entry.Err != nil {
			return metas, entry.Err
		}
		metas = append(metas, entry.Meta)
	}
	return metas, ctx.Err()
}
