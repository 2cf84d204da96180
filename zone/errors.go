package zone

import "errors"

var (
	// ErrAlreadyRunning is returned by Start when the zone already has a
	// jail handle.
	ErrAlreadyRunning = errors.New("zone: already running")

	// ErrNotRunning is returned by Stop when the zone has no jail
	// handle.
	ErrNotRunning = errors.New("zone: not running")

	// ErrIsRunning is returned by Destroy and Send when the zone has a
	// jail handle — both require the zone to be stopped first.
	ErrIsRunning = errors.New("zone: is running")
)
