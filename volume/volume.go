// Package volume implements the abstraction over dataset-backed and
// directory-backed zone root filesystems: creation, destruction,
// binary-stream send/receive, and the "automatic" backend probe.
// Grounded on original_source/zonys-core/src/volume/zfs.rs (dataset
// variant's operation shape) and the directory-variant semantics of
// spec.md §4.8, which has no direct original_source counterpart for
// directory-backed zones — a later addition this port also carries.
package volume

import (
	"io"
	"strings"

	"zonys/config"
	"zonys/identity"
	"zonys/internal/pool"
)

// Volume is a zone's root filesystem, either a pool dataset or a plain
// directory.
type Volume interface {
	// Create brings the root into existence. Fails with
	// ErrAlreadyExists if it's already there; on any other failure
	// leaves no partial artifact.
	Create() error

	// Destroy tears the root down. Each substep's failure is
	// surfaced but subsequent substeps still run, for idempotent
	// cleanup.
	Destroy() error

	// Send streams the root's contents to w: dataset-send bytes for a
	// dataset volume, unframed tar bytes for a directory volume.
	Send(w io.Writer) error

	// Cleanup is a best-effort Destroy used by the crash path; it must
	// not fail if the root is already absent.
	Cleanup() error

	// Snapshots lists the volume's point-in-time snapshots by name.
	// Always empty for a directory volume.
	Snapshots() ([]string, error)

	// RootPath is the on-disk path the caller may read/write once
	// Create has succeeded.
	RootPath() string

	// Kind reports the concrete backend this Volume resolved to —
	// VolumeZfs or VolumeDirectory, never VolumeAutomatic. Used by
	// transmission's Send to pick the wire VolumeHeader's type, since
	// the Unit's own declared kind may be "automatic" and the concrete
	// choice was only made (or rediscovered) here.
	Kind() config.VolumeKind
}

// Receive reconstructs a Volume of the given kind for id from r: dataset
// receive for a zfs volume, tar extraction for a directory volume.
// "automatic" has no meaning at receive time since the sender already
// committed to one kind (communicated via the wire format's
// VolumeHeader, §4.11) — callers must pass the concrete kind the header
// named.
func Receive(kind config.VolumeKind, id identity.Identity, r io.Reader) (Volume, error) {
	switch kind {
	case config.VolumeZfs:
		v := newDatasetVolume(id)
		if err := v.receive(r); err != nil {
			return nil, err
		}
		return v, nil
	case config.VolumeDirectory:
		v := newDirectoryVolume(id)
		if err := v.receive(r); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, ErrFileSystemNotExisting
	}
}

// New selects and constructs the Volume variant for kind, probing the
// pool for an existing ancestor dataset when kind is
// config.VolumeAutomatic.
func New(kind config.VolumeKind, id identity.Identity) (Volume, error) {
	switch kind {
	case config.VolumeZfs:
		return newDatasetVolume(id), nil
	case config.VolumeDirectory:
		return newDirectoryVolume(id), nil
	case config.VolumeAutomatic, "":
		supported, err := probeDatasetSupport(id)
		if err != nil {
			return nil, err
		}

		if supported {
			return newDatasetVolume(id), nil
		}

		return newDirectoryVolume(id), nil
	default:
		return nil, ErrFileSystemNotExisting
	}
}

// probeDatasetSupport walks the identity's dataset path's ancestors,
// nearest first, looking for an existing dataset the new zone's dataset
// could be created under — mirroring
// original_source/zonys-core/src/volume/zfs.rs's ZoneZfsVolume::is_supported,
// which walks FileSystemIdentifier::parent() until it finds one or runs
// out of components.
func probeDatasetSupport(id identity.Identity) (bool, error) {
	components := append([]string{}, id.Base...)

	for len(components) > 0 {
		candidate := strings.Join(components, "/")

		exists, err := pool.Exists(candidate)
		if err != nil {
			return false, err
		}

		if exists {
			return true, nil
		}

		components = components[:len(components)-1]
	}

	return false, nil
}
