package local

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/jmgilman/objstore/core"
)

// sessionsDir holds in-flight multipart uploads below the store root.
// The name carries the reserved prefix so listings never see it.
const sessionsDir = reservedPrefix + "multipart"

// CreateMultipart implements core.Multipart. Parts stage under a
// session directory and become an object only on completion.
func (l *LocalStore) CreateMultipart(ctx context.Context, location core.Path) (*core.MultipartUpload, error) {
	if location.IsRoot() {
		return nil, core.OpErrorf("create_multipart", location, "%w: empty location", core.ErrInvalidInput)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(l.sessionPath(id), 0o755); err != nil {
		return nil, core.OpError("create_multipart", location, translate(err))
	}
	return &core.MultipartUpload{ID: id, Location: location}, nil
}

// PutPart implements core.Multipart. Parts must arrive in order
// starting from one.
func (l *LocalStore) PutPart(ctx context.Context, u *core.MultipartUpload, partNumber int, data []byte) (core.Part, error) {
	if err := core.ValidateNextPart(u, partNumber); err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, err)
	}
	dir := l.sessionPath(u.ID)
	if _, err := os.Stat(dir); err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, translate(err))
	}

	if err := os.WriteFile(partPath(dir, partNumber), data, 0o644); err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, translate(err))
	}

	sum := blake3.Sum256(data)
	part := core.Part{Number: partNumber, ETag: hex.EncodeToString(sum[:])}
	u.Parts = append(u.Parts, part)
	return part, nil
}

// CompleteMultipart implements core.Multipart. The staged parts
// concatenate into a single object that appears atomically.
func (l *LocalStore) CompleteMultipart(ctx context.Context, u *core.MultipartUpload) (core.ObjectMeta, error) {
	dir := l.sessionPath(u.ID)
	if _, err := os.Stat(dir); err != nil {
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, translate(err))
	}
	if len(u.Parts) == 0 {
		return core.ObjectMeta{}, core.OpErrorf("complete_multipart", u.Location, "%w: no parts uploaded", core.ErrInvalidInput)
	}

	full := l.fullPath(u.Location)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, translate(err))
	}
	tmp, err := l.writeTemp(filepath.Dir(full), partsReader(dir, len(u.Parts)))
	if err != nil {
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, translate(err))
	}
	os.RemoveAll(dir)

	info, err := os.Stat(full)
	if err != nil {
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, translate(err))
	}
	return metaFor(u.Location, info), nil
}

// AbortMultipart implements core.Multipart. Aborting an unknown or
// already-aborted session is not an error.
func (l *LocalStore) AbortMultipart(ctx context.Context, u *core.MultipartUpload) error {
	if err := os.RemoveAll(l.sessionPath(u.ID)); err != nil {
		return core.OpError("abort_multipart", u.Location, translate(err))
	}
	return nil
}

func (l *LocalStore) sessionPath(id string) string {
	return filepath.Join(l.root, sessionsDir, id)
}

func partPath(dir string, partNumber int) string {
	return filepath.Join(dir, fmt.Sprintf("part-%06d", partNumber))
}

// partsReader streams the staged part files in upload order.
func partsReader(dir string, count int) io.Reader {
	readers := make([]io.Reader, 0, count)
	for i := 1; i <= count; i++ {
		readers = append(readers, &lazyFileReader{path: partPath(dir, i)})
	}
	return io.MultiReader(readers...)
}

// lazyFileReader opens its file on first read so a missing part
// surfaces as a read error rather than a panic.
type lazyFileReader struct {
	path string
	f    *os.File
	done bool
}

func (r *lazyFileReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	if r.f == nil {
		f, err := os.Open(r.path)
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
