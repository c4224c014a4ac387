// Package core provides the foundational interfaces and types for a
// multi-backend object storage abstraction.
//
// This package defines the contract that storage backends must implement,
// enabling applications to write backend-agnostic code that works with
// local disks, in-memory stores, and remote blob stores (S3-compatible)
// through a unified interface.
//
// # Design Philosophy
//
// The core package follows these principles:
//
//   - Flat keyspace: objects are named by a Path; directories do not exist
//     at this layer and are only ever derived from object keys
//   - Intersection semantics: every operation is expressed in terms of
//     flat keys and byte ranges so that wildly different backends can
//     satisfy the same contract
//   - Interface composition: small focused interfaces compose into the
//     full Store contract
//   - Typed errors: every failure maps onto a fixed taxonomy (ErrNotFound,
//     ErrAlreadyExists, ErrInvalidRange, ErrInvalidInput, ErrPermission,
//     ErrUnavailable) checkable with errors.Is
//
// # Interface Hierarchy
//
// The main Store interface is composed of five sub-interfaces:
//
//   - Reader: metadata and content reads (Head, Get, GetRange)
//   - Writer: atomic writes and deletes (Put, Delete)
//   - Lister: lazy recursive and single-level listing (List, ListWithDelimiter)
//   - Mover: intra-store copies and renames (Copy, CopyIfNotExists,
//     Rename, RenameIfNotExists)
//   - Multipart: staged uploads (CreateMultipart, PutPart,
//     CompleteMultipart, AbortMultipart)
//
// # Usage Example
//
//	import "github.com/jmgilman/objstore/core"
//
//	func Publish(ctx context.Context, store core.Store, data []byte) error {
//	    location := core.MustParsePath("releases/latest.json")
//	    _, err := store.Put(ctx, location, bytes.NewReader(data))
//	    return err
//	}
//
// # Directory Simulation
//
// Backends expose a flat keyspace; DelimitedList derives single-level
// "directories" (common prefixes) from it. The treefs package builds a
// full hierarchical-filesystem view on top of any Store.
//
// # Backend Implementations
//
// This package contains only interface definitions and shared helpers.
// Concrete implementations live in sibling packages:
//
//   - github.com/jmgilman/objstore/local - local-disk backend
//   - github.com/jmgilman/objstore/memory - in-memory backend
//   - github.com/jmgilman/objstore/billy - go-billy-backed backend
//   - github.com/jmgilman/objstore/minio - MinIO/S3-compatible backend
package core
