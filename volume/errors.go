package volume

import "errors"

var (
	// ErrAlreadyExists is returned by Create when the root path (or
	// dataset) already exists.
	ErrAlreadyExists = errors.New("volume: root already exists")

	// ErrFileSystemNotExisting mirrors the original implementation's
	// FileSystemNotExisting: a dataset create or open that should have
	// produced a handle didn't.
	ErrFileSystemNotExisting = errors.New("volume: file system does not exist")
)
