package identity

import "errors"

var (
	// ErrEmptyInput is returned when Parse is given an empty string or a
	// string made only of separators.
	ErrEmptyInput = errors.New("identity: empty input")

	// ErrInvalidUUID is returned when the terminal path component does not
	// parse as a UUID.
	ErrInvalidUUID = errors.New("identity: invalid uuid")

	// ErrEmptyBase is returned by ToDatasetPath when the identity's base has
	// no components to use as a pool name.
	ErrEmptyBase = errors.New("identity: empty base cannot form a dataset path")
)
