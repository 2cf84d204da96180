// Package pool wraps the storage-pool library's dataset operations —
// the capability spec.md §1 names as an external collaborator:
// dataset_create, dataset_open, dataset_mount, dataset_unmount_all,
// dataset_destroy, dataset_send, dataset_receive, dataset_exists and
// snapshot_iter. It is the Go-side FFI boundary that a real build would
// point at a cgo binding over libzfs (mirrored here on
// original_source/zfs-sys/src/wrapper.rs and
// original_source/zonys-core/src/volume/zfs.rs's call sites); this
// port models the surface with an in-process interface so the rest of
// the module depends on behavior, not on a specific storage backend.
package pool

import "io"

// Dataset is a single pool dataset handle, analogous to zfs-sys's
// ZfsHandle.
type Dataset interface {
	Name() string
	Mount() error
	Unmount() error
	UnmountAll() error
	Destroy() error
	Send(w io.Writer) error
	Snapshots() (SnapshotIterator, error)
}

// SnapshotIterator enumerates a dataset's snapshots, mirroring
// zfs-sys's zfs_iter_snapshots callback shape as a pull iterator.
type SnapshotIterator interface {
	Next() (Snapshot, bool)
	Err() error
}

// Snapshot is a single dataset snapshot handle.
type Snapshot interface {
	Name() string
	Destroy() error
}

// Pool is the storage-pool capability: create/open/mount/unmount_all/
// destroy/send/receive/exists, scoped to dataset paths like
// "tank/zones/<uuid>".
type Pool interface {
	Create(name string) error
	Open(name string) (Dataset, bool, error)
	Exists(name string) (bool, error)
	UnmountAll(name string) error
	Destroy(name string) error
	Receive(name string, r io.Reader) error
}

// DefaultPool is the process-wide Pool used by the package-level
// functions, following the teacher's DefaultMM singleton idiom
// (internal/mm/package.go) so callers needing a custom Pool (tests, a
// different backend) can swap it out without threading a parameter
// through every call site.
var DefaultPool Pool

func Create(name string) error { return DefaultPool.Create(name) }

func Open(name string) (Dataset, bool, error) { return DefaultPool.Open(name) }

func Exists(name string) (bool, error) { return DefaultPool.Exists(name) }

func UnmountAll(name string) error { return DefaultPool.UnmountAll(name) }

func Destroy(name string) error { return DefaultPool.Destroy(name) }

func Receive(name string, r io.Reader) error { return DefaultPool.Receive(name, r) }
