package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jmgilman/objstore/core"
)

// session buffers the parts of one in-flight multipart upload, keyed by
// the upload ID in MemoryStore.uploads. Parts are held in arrival
// (part-number) order.
type session struct {
	location core.Path
	parts    [][]byte
}

// CreateMultipart starts a staged upload targeting location.
func (m *MemoryStore) CreateMultipart(_ context.Context, location core.Path) (*core.MultipartUpload, error) {
	if location.IsRoot() {
		return nil, core.OpErrorf("create_multipart", location, "%w: empty location", core.ErrInvalidInput)
	}

	u := &core.MultipartUpload{
		ID:       uuid.NewString(),
		Location: location,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[u.ID] = &session{location: location}
	return u, nil
}

// PutPart buffers one chunk of the upload. Part numbers must arrive
// contiguously starting at 1.
func (m *MemoryStore) PutPart(_ context.Context, u *core.MultipartUpload, partNumber int, data []byte) (core.Part, error) {
	if err := core.ValidateNextPart(u, partNumber); err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.uploads[u.ID]
	if !ok {
		return core.Part{}, core.OpError("put_part", u.Location, core.ErrNotFound)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	sess.parts = append(sess.parts, buf)

	part := core.Part{Number: partNumber, ETag: etag(buf)}
	u.Parts = append(u.Parts, part)
	return part, nil
}

// CompleteMultipart concatenates the buffered parts in part-number
// order and atomically installs the result at the session's location.
// The session is consumed: later completes or aborts see no session.
func (m *MemoryStore) CompleteMultipart(_ context.Context, u *core.MultipartUpload) (core.ObjectMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.uploads[u.ID]
	if !ok {
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, core.ErrNotFound)
	}
	if len(sess.parts) == 0 {
		return core.ObjectMeta{}, core.OpErrorf("complete_multipart", u.Location, "%w: no parts uploaded", core.ErrInvalidInput)
	}

	var size int
	for _, part := range sess.parts {
		size += len(part)
	}
	data := make([]byte, 0, size)
	for _, part := range sess.parts {
		data = append(data, part...)
	}

	delete(m.uploads, u.ID)
	return m.putLocked(sess.location, data), nil
}

// AbortMultipart discards all buffered parts. Aborting an unknown or
// already-finished session is a no-op, so the call is safe on every
// cleanup path.
func (m *MemoryStore) AbortMultipart(_ context.Context, u *core.MultipartUpload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.uploads, u.ID)
	return nil
}
