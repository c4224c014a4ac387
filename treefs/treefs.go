package treefs

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmgilman/objstore/core"
)

const (
	// defaultPartSize is the output stream's multipart threshold and
	// part size. It matches the S3 minimum part size.
	defaultPartSize = 5 * 1024 * 1024

	// defaultDeleteConcurrency limits parallel deletes during
	// directory removal.
	defaultDeleteConcurrency = 10
)

// FileSystem adapts a core.Store to directory-tree semantics.
type FileSystem struct {
	store             core.Store
	partSize          int64
	deleteConcurrency int
}

// Option configures a FileSystem.
type Option func(*FileSystem)

// WithPartSize sets the multipart threshold and part size for output
// streams. Values below one are ignored. Remote backends typically
// require at least 5 MiB for non-final parts.
func WithPartSize(n int64) Option {
	return func(f *FileSystem) {
		if n > 0 {
			f.partSize = n
		}
	}
}

// WithDeleteConcurrency limits parallel object operations during
// directory deletes and moves. Values below one are ignored.
func WithDeleteConcurrency(n int) Option {
	return func(f *FileSystem) {
		if n > 0 {
			f.deleteConcurrency = n
		}
	}
}

// New wraps a store.
func New(store core.Store, opts ...Option) *FileSystem {
	f := &FileSystem{
		store:             store,
		partSize:          defaultPartSize,
		deleteConcurrency: defaultDeleteConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Store returns the underlying store.
func (f *FileSystem) Store() core.Store {
	return f.store
}

// FileInfo describes a file or simulated directory.
type FileInfo struct {
	Location     core.Path
	IsDir        bool
	Size         int64
	LastModified time.Time
}

// Selector describes a directory listing request.
type Selector struct {
	// Base is the directory to list.
	Base core.Path

	// Recursive descends into subdirectories.
	Recursive bool

	// AllowNotFound reports an empty listing instead of an error when
	// Base does not exist.
	AllowNotFound bool
}

// GetFileInfo resolves a single path. An object at the path is a file;
// a path with objects below it is a directory; the root is always a
// directory.
func (f *FileSystem) GetFileInfo(ctx context.Context, location core.Path) (FileInfo, error) {
	if location.IsRoot() {
		return FileInfo{Location: location, IsDir: true}, nil
	}

	meta, err := f.store.Head(ctx, location)
	if err == nil {
		return FileInfo{
			Location:     meta.Location,
			Size:         meta.Size,
			LastModified: meta.LastModified,
		}, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return FileInfo{}, err
	}

	ok, err := f.dirExists(ctx, location)
	if err != nil {
		return FileInfo{}, err
	}
	if ok {
		return FileInfo{Location: location, IsDir: true}, nil
	}
	return FileInfo{}, core.OpError("get_file_info", location, core.ErrNotFound)
}

// GetFileInfoSelector lists the directory named by the selector.
// Results come back sorted by path, directories included.
func (f *FileSystem) GetFileInfoSelector(ctx context.Context, sel Selector) ([]FileInfo, error) {
	infos := []FileInfo{}
	if err := f.walkDir(ctx, sel.Base, sel.Recursive, &infos); err != nil {
		return nil, err
	}

	if len(infos) == 0 && !sel.Base.IsRoot() {
		_, err := f.store.Head(ctx, sel.Base)
		switch {
		case err == nil:
			return nil, core.OpErrorf("get_file_info_selector", sel.Base, "%w: not a directory", core.ErrInvalidInput)
		case !errors.Is(err, core.ErrNotFound):
			return nil, err
		case !sel.AllowNotFound:
			return nil, core.OpError("get_file_info_selector", sel.Base, core.ErrNotFound)
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Location.Compare(infos[j].Location) < 0
	})
	return infos, nil
}

// walkDir appends one directory level, descending when recursive.
// Each directory is visited exactly once, so entries never duplicate.
func (f *FileSystem) walkDir(ctx context.Context, dir core.Path, recursive bool, infos *[]FileInfo) error {
	result, err := f.store.ListWithDelimiter(ctx, dir)
	if err != nil {
		return err
	}

	for _, meta := range result.Objects {
		*infos = append(*infos, FileInfo{
			Location:     meta.Location,
			Size:         meta.Size,
			LastModified: meta.LastModified,
		})
	}
	for _, prefix := range result.CommonPrefixes {
		*infos = append(*infos, FileInfo{Location: prefix, IsDir: true})
		if recursive {
			if err := f.walkDir(ctx, prefix, true, infos); err != nil {
				return err
			}
		}
	}
	return nil
}

// CreateDir validates the path and returns. Directories materialize
// when objects are written below them.
func (f *FileSystem) CreateDir(ctx context.Context, location core.Path) error {
	return nil
}

// DeleteFile removes a single object.
func (f *FileSystem) DeleteFile(ctx context.Context, location core.Path) error {
	return f.store.Delete(ctx, location)
}

// DeleteDir removes every object below the directory. Deleting a
// directory that does not exist succeeds. The root cannot be deleted;
// use DeleteDirContents to empty the store.
func (f *FileSystem) DeleteDir(ctx context.Context, location core.Path) error {
	if location.IsRoot() {
		return core.OpErrorf("delete_dir", location, "%w: cannot delete the root directory", core.ErrInvalidInput)
	}
	return f.deleteBelow(ctx, location)
}

// DeleteDirContents removes every object below the directory, root
// included.
func (f *FileSystem) DeleteDirContents(ctx context.Context, location core.Path) error {
	return f.deleteBelow(ctx, location)
}

func (f *FileSystem) deleteBelow(ctx context.Context, dir core.Path) error {
	metas, err := core.CollectList(ctx, f.store, dir)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.deleteConcurrency)
	for _, meta := range metas {
		if meta.Location.Equal(dir) {
			// An object at the directory path itself is not a child.
			continue
		}
		g.Go(func() error {
			return f.store.Delete(ctx, meta.Location)
		})
	}
	return g.Wait()
}

// Move renames a file, or a directory and everything below it. Files
// at the destination are overwritten.
func (f *FileSystem) Move(ctx context.Context, from, to core.Path) error {
	if _, err := f.store.Head(ctx, from); err == nil {
		return f.store.Rename(ctx, from, to)
	} else if !errors.Is(err, core.ErrNotFound) {
		return err
	}

	ok, err := f.dirExists(ctx, from)
	if err != nil {
		return err
	}
	if !ok {
		return core.OpError("move", from, core.ErrNotFound)
	}

	metas, err := core.CollectList(ctx, f.store, from)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.deleteConcurrency)
	for _, meta := range metas {
		rest, ok := meta.Location.PartsAfter(from)
		if !ok {
			continue
		}
		suffix, err := core.PathFromSegments(rest...)
		if err != nil {
			return err
		}
		dst := to.Join(suffix)
		g.Go(func() error {
			return f.store.Rename(ctx, meta.Location, dst)
		})
	}
	return g.Wait()
}

// CopyFile copies a single object, overwriting the destination.
func (f *FileSystem) CopyFile(ctx context.Context, from, to core.Path) error {
	return f.store.Copy(ctx, from, to)
}

// dirExists probes for at least one object below the path. The
// listing stops after the first hit.
func (f *FileSystem) dirExists(ctx context.Context, location core.Path) (bool, error) {
	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for entry := range f.store.List(probeCtx, location) {
		if entry.Err != nil {
			return false, entry.Err
		}
		if entry.Meta.Location.Equal(location) {
			// The path names an object, not a directory.
			continue
		}
		return true, nil
	}
	return false, ctx.Err()
}
