package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmgilman/objstore/core"
)

// reservedPrefix marks staging files and session directories that must
// never surface as objects.
const reservedPrefix = ".objstore-"

// LocalStore implements core.Store on a directory of the local
// filesystem.
type LocalStore struct {
	root string
}

var _ core.Store = (*LocalStore)(nil)

// New returns a store rooted at the given directory, creating it if
// necessary.
func New(root string) (*LocalStore, error) {
	if root == "" {
		return nil, core.OpErrorf("new", core.Path{}, "%w: empty root directory", core.ErrInvalidInput)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, core.OpError("new", core.Path{}, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, core.OpError("new", core.Path{}, translate(err))
	}

	return &LocalStore{root: abs}, nil
}

// Type implements core.Store.
func (l *LocalStore) Type() core.StoreType {
	return core.StoreTypeLocal
}

// Root returns the absolute base directory of the store.
func (l *LocalStore) Root() string {
	return l.root
}

// fullPath maps an object location to its on-disk path.
func (l *LocalStore) fullPath(location core.Path) string {
	return filepath.Join(l.root, filepath.FromSlash(location.String()))
}

// Head implements core.Reader.
func (l *LocalStore) Head(ctx context.Context, location core.Path) (core.ObjectMeta, error) {
	info, err := l.statObject(location)
	if err != nil {
		return core.ObjectMeta{}, core.OpError("head", location, err)
	}
	return metaFor(location, info), nil
}

// Get implements core.Reader.
func (l *LocalStore) Get(ctx context.Context, location core.Path) (io.ReadCloser, error) {
	if _, err := l.statObject(location); err != nil {
		return nil, core.OpError("get", location, err)
	}
	f, err := os.Open(l.fullPath(location))
	if err != nil {
		return nil, core.OpError("get", location, translate(err))
	}
	return f, nil
}

// GetRange implements core.Reader. The requested range must lie
// entirely within the object.
func (l *LocalStore) GetRange(ctx context.Context, location core.Path, offset, length int64) ([]byte, error) {
	info, err := l.statObject(location)
	if err != nil {
		return nil, core.OpError("get_range", location, err)
	}
	if offset < 0 || length <= 0 || offset+length > info.Size() {
		return nil, core.OpErrorf("get_range", location, "%w: [%d, %d) of %d bytes",
			core.ErrInvalidRange, offset, offset+length, info.Size())
	}

	f, err := os.Open(l.fullPath(location))
	if err != nil {
		return nil, core.OpError("get_range", location, translate(err))
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, core.OpError("get_range", location, translate(err))
	}
	return buf, nil
}

// Put implements core.Writer. The object becomes visible atomically
// once fully written.
func (l *LocalStore) Put(ctx context.Context, location core.Path, r io.Reader) (core.ObjectMeta, error) {
	if location.IsRoot() {
		return core.ObjectMeta{}, core.OpErrorf("put", location, "%w: empty location", core.ErrInvalidInput)
	}

	full := l.fullPath(location)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return core.ObjectMeta{}, core.OpError("put", location, translate(err))
	}

	tmp, err := l.writeTemp(filepath.Dir(full), r)
	if err != nil {
		return core.ObjectMeta{}, core.OpError("put", location, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return core.ObjectMeta{}, core.OpError("put", location, translate(err))
	}

	info, err := os.Stat(full)
	if err != nil {
		return core.ObjectMeta{}, core.OpError("put", location, translate(err))
	}
	return metaFor(location, info), nil
}

// Delete implements core.Writer.
func (l *LocalStore) Delete(ctx context.Context, location core.Path) error {
	if _, err := l.statObject(location); err != nil {
		return core.OpError("delete", location, err)
	}
	if err := os.Remove(l.fullPath(location)); err != nil {
		return core.OpError("delete", location, translate(err))
	}
	return nil
}

// List implements core.Lister. Entries arrive in ascending path order
// within each directory; the walk is depth-first lexical.
func (l *LocalStore) List(ctx context.Context, prefix core.Path) <-chan core.ListEntry {
	out := make(chan core.ListEntry)

	go func() {
		defer close(out)

		dir := l.fullPath(prefix)
		info, err := os.Stat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			sendEntry(ctx, out, core.ListEntry{Err: core.OpError("list", prefix, translate(err))})
			return
		}
		if !info.IsDir() {
			// The prefix names an object exactly.
			sendEntry(ctx, out, core.ListEntry{Meta: metaFor(prefix, info)})
			return
		}

		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if strings.HasPrefix(d.Name(), reservedPrefix) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			location, err := l.locationOf(path)
			if err != nil {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			if !sendEntry(ctx, out, core.ListEntry{Meta: metaFor(location, info)}) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			sendEntry(ctx, out, core.ListEntry{Err: core.OpError("list", prefix, translate(err))})
		}
	}()

	return out
}

// ListWithDelimiter implements core.Lister. Subdirectories appear as
// common prefixes only when they transitively contain an object.
func (l *LocalStore) ListWithDelimiter(ctx context.Context, prefix core.Path) (core.ListResult, error) {
	dir := l.fullPath(prefix)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return core.ListResult{}, nil
	}
	if err != nil {
		return core.ListResult{}, core.OpError("list_with_delimiter", prefix, translate(err))
	}
	if !info.IsDir() {
		// An object at the prefix itself has no children.
		return core.ListResult{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return core.ListResult{}, core.OpError("list_with_delimiter", prefix, translate(err))
	}

	var result core.ListResult
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), reservedPrefix) {
			continue
		}
		child, err := prefix.Child(entry.Name())
		if err != nil {
			return core.ListResult{}, core.OpError("list_with_delimiter", prefix, err)
		}
		if entry.IsDir() {
			ok, err := dirHasObjects(filepath.Join(dir, entry.Name()))
			if err != nil {
				return core.ListResult{}, core.OpError("list_with_delimiter", prefix, translate(err))
			}
			if ok {
				result.CommonPrefixes = append(result.CommonPrefixes, child)
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return core.ListResult{}, core.OpError("list_with_delimiter", prefix, translate(err))
		}
		result.Objects = append(result.Objects, metaFor(child, info))
	}

	core.SortObjectMeta(result.Objects)
	core.SortPaths(result.CommonPrefixes)
	return result, nil
}

// Copy implements core.Mover.
func (l *LocalStore) Copy(ctx context.Context, from, to core.Path) error {
	if err := l.copyToTemp(from, to, func(tmp, dst string) error {
		return os.Rename(tmp, dst)
	}); err != nil {
		return core.OpError("copy", from, err)
	}
	return nil
}

// CopyIfNotExists implements core.Mover. The copy lands via hardlink,
// which fails atomically when the destination already exists.
func (l *LocalStore) CopyIfNotExists(ctx context.Context, from, to core.Path) error {
	err := l.copyToTemp(from, to, func(tmp, dst string) error {
		if err := os.Link(tmp, dst); err != nil {
			return err
		}
		return os.Remove(tmp)
	})
	if err != nil {
		return core.OpError("copy_if_not_exists", from, err)
	}
	return nil
}

// Rename implements core.Mover.
func (l *LocalStore) Rename(ctx context.Context, from, to core.Path) error {
	if _, err := l.statObject(from); err != nil {
		return core.OpError("rename", from, err)
	}
	dst := l.fullPath(to)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return core.OpError("rename", from, translate(err))
	}
	if err := os.Rename(l.fullPath(from), dst); err != nil {
		return core.OpError("rename", from, translate(err))
	}
	return nil
}

// RenameIfNotExists implements core.Mover.
func (l *LocalStore) RenameIfNotExists(ctx context.Context, from, to core.Path) error {
	if _, err := l.statObject(from); err != nil {
		return core.OpError("rename_if_not_exists", from, err)
	}
	dst := l.fullPath(to)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return core.OpError("rename_if_not_exists", from, translate(err))
	}
	if err := os.Link(l.fullPath(from), dst); err != nil {
		return core.OpError("rename_if_not_exists", from, translate(err))
	}
	if err := os.Remove(l.fullPath(from)); err != nil {
		return core.OpError("rename_if_not_exists", from, translate(err))
	}
	return nil
}

// copyToTemp writes the source to a staging file next to the
// destination and hands both paths to commit.
func (l *LocalStore) copyToTemp(from, to core.Path, commit func(tmp, dst string) error) error {
	if _, err := l.statObject(from); err != nil {
		return err
	}

	src, err := os.Open(l.fullPath(from))
	if err != nil {
		return translate(err)
	}
	defer src.Close()

	dst := l.fullPath(to)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return translate(err)
	}
	tmp, err := l.writeTemp(filepath.Dir(dst), src)
	if err != nil {
		return err
	}
	if err := commit(tmp, dst); err != nil {
		os.Remove(tmp)
		return translate(err)
	}
	return nil
}

// writeTemp streams r into a new staging file inside dir and returns
// its path. The file is synced before return.
func (l *LocalStore) writeTemp(dir string, r io.Reader) (string, error) {
	f, err := os.CreateTemp(dir, reservedPrefix+"tmp-*")
	if err != nil {
		return "", translate(err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", translate(err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", translate(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", translate(err)
	}
	return f.Name(), nil
}

// statObject stats the location and rejects anything that is not a
// regular file.
func (l *LocalStore) statObject(location core.Path) (os.FileInfo, error) {
	info, err := os.Stat(l.fullPath(location))
	if err != nil {
		return nil, translate(err)
	}
	if info.IsDir() {
		return nil, core.ErrNotFound
	}
	return info, nil
}

// locationOf maps an on-disk path back to an object location.
func (l *LocalStore) locationOf(path string) (core.Path, error) {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return core.Path{}, err
	}
	return core.ParsePath(filepath.ToSlash(rel))
}

// dirHasObjects reports whether dir transitively contains at least one
// non-reserved file.
func dirHasObjects(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), reservedPrefix) {
			continue
		}
		if !entry.IsDir() {
			return true, nil
		}
		ok, err := dirHasObjects(filepath.Join(dir, entry.Name()))
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
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

// metaFor builds object metadata from a stat result. The ETag derives
// from modification time and size, which is cheap and changes whenever
// the content does under the atomic-rename write path.
func metaFor(location core.Path, info os.FileInfo) core.ObjectMeta {
	return core.ObjectMeta{
		Location:     location,
		Size:         info.Size(),
		LastModified: info.ModTime().UTC(),
		ETag:         fmt.Sprintf("%x-%x", info.ModTime().UnixNano(), info.Size()),
	}
}

// translate maps OS errors onto the store taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return core.ErrNotFound
	case errors.Is(err, fs.ErrExist):
		return core.ErrAlreadyExists
	case errors.Is(err, fs.ErrPermission):
		return core.ErrPermission
	}
	return err
}
