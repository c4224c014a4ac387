package treefs

import (
	"bytes"
	"context"
	"io"
	"io/fs"

	"github.com/jmgilman/objstore/core"
)

// OpenInputStream opens a sequential reader over an object.
func (f *FileSystem) OpenInputStream(ctx context.Context, location core.Path) (io.ReadCloser, error) {
	return f.store.Get(ctx, location)
}

// OpenInputFile opens an object for random access. Seek and ReadAt are
// served by ranged reads, so the object is never buffered whole.
func (f *FileSystem) OpenInputFile(ctx context.Context, location core.Path) (*InputFile, error) {
	meta, err := f.store.Head(ctx, location)
	if err != nil {
		return nil, err
	}
	return &InputFile{
		store:    f.store,
		ctx:      ctx,
		location: location,
		size:     meta.Size,
	}, nil
}

// InputFile is a random-access reader over a single object.
type InputFile struct {
	store    core.Store
	ctx      context.Context
	location core.Path
	size     int64
	offset   int64
	closed   bool
}

var (
	_ io.ReadSeekCloser = (*InputFile)(nil)
	_ io.ReaderAt       = (*InputFile)(nil)
)

// Size returns the object size recorded when the file was opened.
func (f *InputFile) Size() int64 {
	return f.size
}

// Read reads from the current offset.
func (f *InputFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

// ReadAt reads len(p) bytes starting at off. Reads crossing the end of
// the object return the available bytes and io.EOF.
func (f *InputFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, core.OpError("read", f.location, fs.ErrClosed)
	}
	if off < 0 {
		return 0, core.OpErrorf("read", f.location, "%w: negative offset %d", core.ErrInvalidInput, off)
	}
	if off >= f.size || len(p) == 0 {
		if len(p) == 0 && off <= f.size {
			return 0, nil
		}
		return 0, io.EOF
	}

	length := int64(len(p))
	short := off+length > f.size
	if short {
		length = f.size - off
	}

	data, err := f.store.GetRange(f.ctx, f.location, off, length)
	if err != nil {
		return 0, err
	}
	n := copy(p, data)
	if short {
		return n, io.EOF
	}
	return n, nil
}

// Seek sets the offset for the next Read. Seeking past the end is
// allowed; subsequent reads return io.EOF.
func (f *InputFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, core.OpError("seek", f.location, fs.ErrClosed)
	}

	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = f.offset + offset
	case io.SeekEnd:
		next = f.size + offset
	default:
		return 0, core.OpErrorf("seek", f.location, "%w: whence %d", core.ErrInvalidInput, whence)
	}
	if next < 0 {
		return 0, core.OpErrorf("seek", f.location, "%w: negative position %d", core.ErrInvalidInput, next)
	}

	f.offset = next
	return next, nil
}

// Close releases the file. Close is idempotent.
func (f *InputFile) Close() error {
	f.closed = true
	return nil
}

// OpenOutputStream opens a writer that replaces the object at location
// when closed. Writes buffer in memory up to the part size, then the
// stream switches to a multipart upload and flushes a part per
// threshold crossing. Nothing is visible at the location until Close
// returns.
func (f *FileSystem) OpenOutputStream(ctx context.Context, location core.Path) (*OutputFile, error) {
	if location.IsRoot() {
		return nil, core.OpErrorf("open_output_stream", location, "%w: empty location", core.ErrInvalidInput)
	}
	return &OutputFile{
		store:    f.store,
		ctx:      ctx,
		location: location,
		partSize: f.partSize,
	}, nil
}

// OutputFile accumulates writes and commits them as a single object on
// Close.
type OutputFile struct {
	store    core.Store
	ctx      context.Context
	location core.Path
	partSize int64

	buf    bytes.Buffer
	upload *core.MultipartUpload
	closed bool
	err    error // sticky failure; commits stop once set
}

var _ io.WriteCloser = (*OutputFile)(nil)

// Write buffers p, flushing full parts once the multipart threshold is
// crossed.
func (o *OutputFile) Write(p []byte) (int, error) {
	if o.closed {
		return 0, core.OpError("write", o.location, fs.ErrClosed)
	}
	if o.err != nil {
		return 0, o.err
	}

	n, _ := o.buf.Write(p)

	for int64(o.buf.Len()) >= o.partSize {
		if err := o.flushPart(o.partSize); err != nil {
			o.err = err
			o.abort()
			return n, err
		}
	}
	return n, nil
}

// flushPart uploads the next length bytes of the buffer as a part,
// opening the multipart session on first use.
func (o *OutputFile) flushPart(length int64) error {
	if o.upload == nil {
		u, err := o.store.CreateMultipart(o.ctx, o.location)
		if err != nil {
			return err
		}
		o.upload = u
	}

	// The store may retain the slice, so hand it a copy.
	part := append([]byte(nil), o.buf.Next(int(length))...)
	_, err := o.store.PutPart(o.ctx, o.upload, len(o.upload.Parts)+1, part)
	return err
}

// Close commits the object. Small writes go up as a single put; a
// stream that crossed the part threshold completes its multipart
// upload instead. Close is idempotent.
func (o *OutputFile) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	if o.err != nil {
		return o.err
	}

	if o.upload == nil {
		_, err := o.store.Put(o.ctx, o.location, bytes.NewReader(o.buf.Bytes()))
		return err
	}

	if o.buf.Len() > 0 {
		if err := o.flushPart(int64(o.buf.Len())); err != nil {
			o.abort()
			return err
		}
	}
	if _, err := o.store.CompleteMultipart(o.ctx, o.upload); err != nil {
		o.abort()
		return err
	}
	return nil
}

// Abort discards the stream without writing the object. Aborting after
// a successful Close is a no-op.
func (o *OutputFile) Abort() error {
	if o.closed {
		return nil
	}
	o.closed = true
	o.abort()
	return nil
}

func (o *OutputFile) abort() {
	if o.upload != nil {
		// Best effort: the session is already doomed.
		_ = o.store.AbortMultipart(o.ctx, o.upload)
		o.upload = nil
	}
	o.buf.Reset()
}
