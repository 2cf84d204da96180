package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Unit is the persisted, normalized form of a Directive: structurally
// identical except that Includes has been materialized into Units, a
// list of fully-resolved child Units produced by Resolve. A Unit is
// what gets written to a zone's configuration file and read back on
// every subsequent operation.
type Unit struct {
	Units []*Unit

	From      string
	Tags      []string
	Variables map[string]interface{}

	Type string

	Volume           *VolumeKind
	StartAfterCreate *bool
	DestroyAfterStop *bool

	Execute *Execute
}

// NewUnit returns the default constructor's value: a v1 Unit typed
// "jail" with every optional field absent.
func NewUnit() *Unit {
	return &Unit{Type: "jail"}
}

type rawUnit struct {
	Version string `yaml:"version"`

	Units     []*Unit                `yaml:"units,omitempty"`
	From      string                 `yaml:"from,omitempty"`
	Tags      []string               `yaml:"tags,omitempty"`
	Variables map[string]interface{} `yaml:"variables,omitempty"`

	Type string `yaml:"type"`

	FileSystem string `yaml:"file_system,omitempty"`

	StartAfterCreate *bool `yaml:"start_after_create,omitempty"`
	DestroyAfterStop *bool `yaml:"destroy_after_stop,omitempty"`

	Execute *Execute `yaml:"execute,omitempty"`
}

// UnmarshalYAML mirrors Directive's validation of version/type, minus
// the file_system/volume aliasing: a persisted Unit is always written
// by this implementation, so it only ever carries the canonical key.
func (u *Unit) UnmarshalYAML(value *yaml.Node) error {
	var raw rawUnit
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if !acceptedVersions[raw.Version] {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, raw.Version)
	}

	if raw.Type != "jail" {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, raw.Type)
	}

	u.Units = raw.Units
	u.From = raw.From
	u.Tags = raw.Tags
	u.Variables = raw.Variables
	u.Type = raw.Type
	u.StartAfterCreate = raw.StartAfterCreate
	u.DestroyAfterStop = raw.DestroyAfterStop
	u.Execute = raw.Execute

	if raw.FileSystem != "" {
		kind, err := parseVolumeKind(raw.FileSystem)
		if err != nil {
			return err
		}
		u.Volume = &kind
	}

	return nil
}

// MarshalYAML emits the canonical persisted shape.
func (u Unit) MarshalYAML() (interface{}, error) {
	raw := rawUnit{
		Version:          CurrentVersion,
		Units:            u.Units,
		From:             u.From,
		Tags:             u.Tags,
		Variables:        u.Variables,
		Type:             "jail",
		StartAfterCreate: u.StartAfterCreate,
		DestroyAfterStop: u.DestroyAfterStop,
		Execute:          u.Execute,
	}

	if u.Volume != nil {
		raw.FileSystem = string(*u.Volume)
	}

	return raw, nil
}
