// Package treefs presents a core.Store as a filesystem with a
// directory tree.
//
// Object stores have a flat keyspace; directories here are simulated
// from the path structure of the objects that exist. A directory
// "exists" exactly when at least one object lives below it, it is
// created implicitly by writing such an object, and it disappears when
// the last one is deleted. CreateDir is therefore a validation-only
// no-op and deleting an already-absent directory succeeds.
//
// Streams adapt the store's object operations to io interfaces:
// OpenInputFile serves Seek and ReadAt through ranged reads without
// buffering the object, and OpenOutputStream buffers small writes and
// switches to a multipart upload once they exceed the part size.
package treefs
