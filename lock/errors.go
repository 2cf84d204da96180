package lock

import "errors"

var (
	// ErrAlreadyLocked is returned by Acquire when another live holder owns
	// the lock.
	ErrAlreadyLocked = errors.New("lock: already locked")

	// ErrNotLocked is returned by Release when the lockfile is already
	// absent.
	ErrNotLocked = errors.New("lock: not locked")
)
