package seed

import "errors"

var (
	// ErrUnsupportedScheme is returned when a from reference's URL
	// scheme is anything other than empty, "file", "http" or "https".
	ErrUnsupportedScheme = errors.New("seed: unsupported scheme")

	// ErrUnsupportedExtension is returned when the seed archive's file
	// extension isn't one this implementation can unpack.
	ErrUnsupportedExtension = errors.New("seed: unsupported archive extension")
)
