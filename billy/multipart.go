package billy

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/jmgilman/objstore/core"
)

// sessionsDir holds in-flight multipart uploads. The reserved prefix
// keeps it out of listings.
const sessionsDir = "/" + reservedPrefix + "multipart"

// CreateMultipart implements core.Multipart.
func (b *BillyStore) CreateMultipart(ctx context.Context, location core.Path) (*core.MultipartUpload, error) {
	if location.IsRoot() {
		return nil, core.OpErrorf("create_multipart", location, "%w: empty location", core.ErrInvalidInput)
	}

	id := uuid.NewString()
	if err := b.bfs.MkdirAll(sessionPath(id), 0o755); err != nil {
		return nil, core.OpError("create_multipart", location, translate(err))
	}
	// memfs keeps no empty directories, so write a marker the part and
	// completion paths can stat.
	marker, err := b.bfs.Create(markerPath(id))
	if err != nil {
		return nil, core.OpError("create_multipart", location, translate(err))
	}
	marker.Close()

	return &core.MultipartUpload{ID: id, Location: location}, nil
}

// PutPart implements core.Multipart.
func (b *BillyStore) PutPart(ctx context.Context, u *core.MultipartUpload, partNumber int, data []byte) (core.Part, error) {
	if err := core.ValidateNextPart(u, partNumber); err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, err)
	}
	if _, err := b.bfs.Stat(markerPath(u.ID)); err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, translate(err))
	}

	f, err := b.bfs.Create(partPath(u.ID, partNumber))
	if err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, translate(err))
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return core.Part{}, core.OpError("put_part", u.Location, translate(err))
	}
	if err := f.Close(); err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, translate(err))
	}

	sum := blake3.Sum256(data)
	part := core.Part{Number: partNumber, ETag: hex.EncodeToString(sum[:])}
	u.Parts = append(u.Parts, part)
	return part, nil
}

// CompleteMultipart implements core.Multipart.
func (b *BillyStore) CompleteMultipart(ctx context.Context, u *core.MultipartUpload) (core.ObjectMeta, error) {
	if _, err := b.bfs.Stat(markerPath(u.ID)); err != nil {
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, translate(err))
	}
	if len(u.Parts) == 0 {
		return core.ObjectMeta{}, core.OpErrorf("complete_multipart", u.Location, "%w: no parts uploaded", core.ErrInvalidInput)
	}

	full := fsPath(u.Location)
	if err := b.writeVia(path.Dir(full), full, b.partsReader(u)); err != nil {
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, err)
	}
	b.removeSession(u.ID)

	info, err := b.bfs.Stat(full)
	if err != nil {
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, translate(err))
	}
	return metaFor(u.Location, info), nil
}

// AbortMultipart implements core.Multipart. Aborting an unknown or
// already-aborted session is not an error.
func (b *BillyStore) AbortMultipart(ctx context.Context, u *core.MultipartUpload) error {
	if err := b.removeSession(u.ID); err != nil {
		return core.OpError("abort_multipart", u.Location, translate(err))
	}
	return nil
}

func (b *BillyStore) partsReader(u *core.MultipartUpload) io.Reader {
	readers := make([]io.Reader, 0, len(u.Parts))
	for _, part := range u.Parts {
		readers = append(readers, &lazyPartReader{bfs: b, path: partPath(u.ID, part.Number)})
	}
	return io.MultiReader(readers...)
}

func (b *BillyStore) removeSession(id string) error {
	infos, err := b.bfs.ReadDir(sessionPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, info := range infos {
		if err := b.bfs.Remove(path.Join(sessionPath(id), info.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := b.bfs.Remove(sessionPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func sessionPath(id string) string {
	return path.Join(sessionsDir, id)
}

func markerPath(id string) string {
	return path.Join(sessionPath(id), "session")
}

func partPath(id string, partNumber int) string {
	return path.Join(sessionPath(id), fmt.Sprintf("part-%06d", partNumber))
}

// lazyPartReader opens its part file on first read.
type lazyPartReader struct {
	bfs  *BillyStore
	path string
	f    io.ReadCloser
	done bool
}

func (r *lazyPartReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	if r.f == nil {
		f, err := r.bfs.bfs.Open(r.path)
		if err != nil {
			return 0, err
		}
		r.f = f
	}
	n, err := r.f.Read(p)
	if err == io.EOF {
		r.f.Close()
		r.done = true
		if n > 0 {
			return n, nil
		}
	}
	return n, err
}
