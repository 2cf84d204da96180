package config

import "errors"

var (
	// ErrUnsupportedVersion is returned when a Directive's version
	// discriminator isn't one of the accepted spellings.
	ErrUnsupportedVersion = errors.New("config: unsupported version")

	// ErrUnsupportedType is returned when a Directive's type discriminator
	// names something other than "jail".
	ErrUnsupportedType = errors.New("config: unsupported type")

	// ErrUnsupportedScheme is returned when an include reference's URL
	// scheme isn't empty or "file".
	ErrUnsupportedScheme = errors.New("config: unsupported include scheme")

	// ErrIncludeCycle is returned by Resolve when the include depth exceeds
	// MaxIncludeDepth, the implementation-defined recursion-limit failure
	// called for by a cyclic include graph.
	ErrIncludeCycle = errors.New("config: include depth exceeded, likely a cycle")

	// ErrUnknownVolumeKind is returned when a file_system/volume value
	// isn't one of automatic, auto, zfs or directory.
	ErrUnknownVolumeKind = errors.New("config: unknown volume kind")

	// ErrUnknownTarget is returned when a hook's target isn't "parent"
	// or "child".
	ErrUnknownTarget = errors.New("config: unknown hook target")
)
