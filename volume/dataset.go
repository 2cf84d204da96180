package volume

import (
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"zonys/config"
	"zonys/errs"
	"zonys/identity"
	"zonys/internal/pool"
)

// datasetVolume is a pool-dataset-backed zone root, grounded on
// original_source/zonys-core/src/volume/zfs.rs's ZoneZfsVolume.
type datasetVolume struct {
	id   identity.Identity
	path string
}

func newDatasetVolume(id identity.Identity) *datasetVolume {
	path, _ := id.ToDatasetPath()
	return &datasetVolume{id: id, path: path}
}

func (v *datasetVolume) RootPath() string {
	return v.id.ToDirectoryPath()
}

func (v *datasetVolume) Kind() config.VolumeKind {
	return config.VolumeZfs
}

func (v *datasetVolume) Create() error {
	if exists, err := pool.Exists(v.path); err != nil {
		return err
	} else if exists {
		return ErrAlreadyExists
	}

	if err := pool.Create(v.path); err != nil {
		return err
	}

	dataset, ok, err := pool.Open(v.path)
	if err != nil {
		pool.Destroy(v.path)
		return err
	}

	if !ok {
		return ErrFileSystemNotExisting
	}

	if err := dataset.Mount(); err != nil {
		pool.Destroy(v.path)
		return fmt.Errorf("mounting dataset %s: %w", v.path, err)
	}

	return nil
}

// Destroy iterates and destroys every snapshot (concurrently, via
// errgroup, since the pool driver serializes dataset operations on its
// own and destroying N independent snapshots has no ordering
// requirement between them), then unmounts recursively, then destroys
// the dataset itself. Every substep's failure is collected rather than
// short-circuiting, so a failed snapshot or unmount step still lets the
// remaining substeps run. A dataset that is already gone returns
// ErrFileSystemNotExisting without attempting any substep.
func (v *datasetVolume) Destroy() error {
	dataset, ok, err := pool.Open(v.path)
	if err != nil {
		return err
	}

	if !ok {
		return ErrFileSystemNotExisting
	}

	var destroyErr error

	if snapshots, err := dataset.Snapshots(); err != nil {
		destroyErr = err
	} else {
		destroyErr = destroySnapshotsConcurrently(snapshots)
	}

	unmountErr := dataset.UnmountAll()
	datasetDestroyErr := pool.Destroy(v.path)

	return errs.Collect("destroying dataset "+v.path, destroyErr, unmountErr, datasetDestroyErr)
}

func destroySnapshotsConcurrently(iter pool.SnapshotIterator) error {
	var group errgroup.Group

	for {
		snapshot, ok := iter.Next()
		if !ok {
			break
		}

		snapshot := snapshot
		group.Go(func() error {
			return snapshot.Destroy()
		})
	}

	if err := iter.Err(); err != nil {
		return err
	}

	return group.Wait()
}

func (v *datasetVolume) Send(w io.Writer) error {
	dataset, ok, err := pool.Open(v.path)
	if err != nil {
		return err
	}

	if !ok {
		return ErrFileSystemNotExisting
	}

	return dataset.Send(w)
}

func (v *datasetVolume) receive(r io.Reader) error {
	return pool.Receive(v.path, r)
}

func (v *datasetVolume) Cleanup() error {
	dataset, ok, err := pool.Open(v.path)
	if err != nil || !ok {
		return err
	}

	unmountErr := dataset.UnmountAll()
	destroyErr := pool.Destroy(v.path)

	return errs.Collect("cleaning up dataset "+v.path, unmountErr, destroyErr)
}

func (v *datasetVolume) Snapshots() ([]string, error) {
	dataset, ok, err := pool.Open(v.path)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, nil
	}

	iter, err := dataset.Snapshots()
	if err != nil {
		return nil, err
	}

	var names []string

	for {
		snapshot, ok := iter.Next()
		if !ok {
			break
		}

		names = append(names, snapshot.Name())
	}

	return names, iter.Err()
}
