// Package local provides a local-disk implementation of core.Store.
//
// Object paths join to filesystem components under a configured base
// directory. Writes go to a temporary file and atomically rename into
// place, so readers never observe a partially written object.
// Conditional renames use hardlink-then-remove, which is atomic on
// POSIX filesystems.
//
// Directories are not objects: listings yield files only, and a
// directory left empty by deletions never appears as a common prefix.
// Names beginning with ".objstore-" are reserved for staging files and
// multipart sessions and are invisible to listings.
package local
