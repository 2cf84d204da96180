package transmission

import "errors"

var (
	// ErrMissingMagicNumber is returned when a stream's first eight bytes
	// aren't the transmission magic number.
	ErrMissingMagicNumber = errors.New("transmission: missing magic number")

	// ErrUnsupportedTransmissionType is returned when a TypeHeader or
	// VolumeHeader names a variant this host doesn't implement.
	ErrUnsupportedTransmissionType = errors.New("transmission: unsupported type")

	// ErrEmptyInput is returned when a stream reaches EOF before the
	// magic number is fully read. Callers use this to end a receive
	// loop (over repeated sends on one connection) gracefully.
	ErrEmptyInput = errors.New("transmission: empty input")
)
