// Package identity implements zone identity: parsing, formatting, and the
// pure derivations onto filesystem, dataset, lock and configuration paths.
package identity

import (
	"fmt"
	"path"
	"strings"

	"github.com/gofrs/uuid"
)

const separator = "/"

// Base is the ordered sequence of path components a zone's identity is
// rooted under. It must contain at least one component to be usable as a
// dataset path (ToDatasetPath returns ErrEmptyBase otherwise — callers
// that accept directory-only bases should check Base.Empty first).
type Base []string

func (b Base) String() string {
	return strings.Join(b, separator)
}

// Empty reports whether the base has no components.
func (b Base) Empty() bool {
	return len(b) == 0
}

// Identity is a zone's persistent address: an ordered base path plus the
// UUID generated for it on create/receive. It is never reused.
type Identity struct {
	Base Base
	UUID uuid.UUID
}

// New builds an identity from a base and a pre-generated UUID. Callers that
// need a fresh UUID (create, receive) should use Generate.
func New(base Base, id uuid.UUID) Identity {
	return Identity{Base: base, UUID: id}
}

// Generate builds an identity from a base with a freshly generated UUID.
func Generate(base Base) (Identity, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Identity{}, fmt.Errorf("generating zone uuid: %w", err)
	}

	return Identity{Base: base, UUID: id}, nil
}

// String renders the identity's textual form: base components joined by
// "/", followed by the UUID.
func (i Identity) String() string {
	if len(i.Base) == 0 {
		return i.UUID.String()
	}

	return i.Base.String() + separator + i.UUID.String()
}

// Parse splits text on "/"; the last nonempty token must parse as a UUID,
// everything before it becomes Base.
func Parse(text string) (Identity, error) {
	if text == "" {
		return Identity{}, ErrEmptyInput
	}

	parts := strings.Split(text, separator)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	if len(parts) == 0 {
		return Identity{}, ErrEmptyInput
	}

	last := parts[len(parts)-1]

	id, err := uuid.FromString(last)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalidUUID, last)
	}

	return Identity{Base: Base(parts[:len(parts)-1]), UUID: id}, nil
}

// ToDirectoryPath derives the filesystem directory path `/<Base…>/<uuid>`.
func (i Identity) ToDirectoryPath() string {
	return path.Join("/", path.Join(i.Base...), i.UUID.String())
}

// ToDatasetPath derives the dataset path `<Base[0]>/<Base[1..]>/<uuid>`. The
// base must carry at least one component — a pool name — for this to be
// meaningful; callers wanting a directory-only zone should not call this.
func (i Identity) ToDatasetPath() (string, error) {
	if i.Base.Empty() {
		return "", ErrEmptyBase
	}

	components := append(append(Base{}, i.Base...), i.UUID.String())

	return strings.Join(components, separator), nil
}

// ToLockPath derives the lock file path `/<Base…>/<uuid>.lock`.
func (i Identity) ToLockPath() string {
	return i.ToDirectoryPath() + ".lock"
}

// ToConfigPath derives the configuration file path `/<Base…>/<uuid>.yaml`.
func (i Identity) ToConfigPath() string {
	return i.ToDirectoryPath() + ".yaml"
}

// FromDatasetPath pops the terminal dataset path component as the UUID; the
// rest becomes Base. Inverse of ToDatasetPath (modulo the leading "/" that
// directory paths carry but dataset paths don't).
func FromDatasetPath(datasetPath string) (Identity, error) {
	components := strings.Split(strings.Trim(datasetPath, separator), separator)
	if len(components) == 0 || components[0] == "" {
		return Identity{}, ErrEmptyInput
	}

	last := components[len(components)-1]

	id, err := uuid.FromString(last)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalidUUID, last)
	}

	return Identity{Base: Base(components[:len(components)-1]), UUID: id}, nil
}
