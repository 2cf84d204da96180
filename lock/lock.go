// Package lock implements the per-zone exclusive lockfile: an atomically
// created marker file plus an OS advisory flock on its descriptor, so a
// stale lockfile left behind by a crashed process doesn't wedge future
// callers forever.
package lock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"zonys/identity"
)

// Lock represents a held exclusive lock for one zone identity. The zero
// value is not usable; obtain one via Acquire or Hold.
type Lock struct {
	path string
	file *os.File
}

// Acquire creates the lockfile at identity's lock path using OS-level
// exclusive creation (O_CREATE|O_EXCL) so two concurrent callers can't both
// believe they hold it, then takes an OS advisory flock on the descriptor.
// The flock is what lets a later caller recover from a stale lockfile: if
// the file exists but no process holds the flock, LOCK_EX succeeds anyway
// and the stale file is silently reclaimed.
func Acquire(id identity.Identity) (*Lock, error) {
	path := id.ToLockPath()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			reclaimed, rerr := reclaimStale(path)
			if rerr != nil || !reclaimed {
				return nil, ErrAlreadyLocked
			}

			file, err = os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
		}

		if err != nil {
			return nil, fmt.Errorf("creating lockfile %s: %w", path, err)
		}
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, ErrAlreadyLocked
	}

	return &Lock{path: path, file: file}, nil
}

// reclaimStale opens an existing lockfile and attempts a non-blocking flock
// purely to detect whether its holder is gone; it always closes the probe
// descriptor (the real lock is re-acquired by the caller) and never leaves
// the file locked itself.
func reclaimStale(path string) (bool, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return false, err
	}
	defer file.Close()

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return false, nil
	}

	unix.Flock(int(file.Fd()), unix.LOCK_UN)

	return true, nil
}

// Release removes the lockfile, failing with ErrNotLocked if it's already
// absent. The OS advisory flock is released implicitly when the descriptor
// is closed.
func (l *Lock) Release() error {
	defer l.file.Close()

	if err := os.Remove(l.path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotLocked
		}

		return fmt.Errorf("removing lockfile %s: %w", l.path, err)
	}

	return nil
}

// Cleanup best-effort removes the lockfile if present; absence is not an
// error. Used by the crash-recovery path, which must tolerate a lockfile
// that's already gone.
func Cleanup(id identity.Identity) error {
	if err := os.Remove(id.ToLockPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lockfile %s: %w", id.ToLockPath(), err)
	}

	return nil
}

// Hold acquires the lock for id, runs f, and releases the lock on every
// exit path from f — including a panic, which is re-raised after the lock
// is released.
func Hold(id identity.Identity, f func() error) (err error) {
	l, err := Acquire(id)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			l.Release()
			panic(r)
		}

		if rerr := l.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	return f()
}
