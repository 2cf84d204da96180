// Package config implements the two-layer configuration model: the
// human-authored Directive tree and the normalized, persisted Unit tree
// resolved from it. The YAML shape mirrors the original Rust directive
// types (a version-discriminated, flattened-by-type document) even
// though Go has no struct flattening annotation as convenient as serde's
// — UnmarshalYAML does the flattening by hand.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// acceptedVersions lists every version spelling a reader must tolerate.
// Writers always emit CurrentVersion.
var acceptedVersions = map[string]bool{
	"1":            true,
	"latest":       true,
	"experimental": true,
}

// CurrentVersion is the version string written by Unit.MarshalYAML.
const CurrentVersion = "1"

// VolumeKind selects the root filesystem backend for a zone.
type VolumeKind string

const (
	VolumeAutomatic VolumeKind = "automatic"
	VolumeZfs       VolumeKind = "zfs"
	VolumeDirectory VolumeKind = "directory"
)

func parseVolumeKind(raw string) (VolumeKind, error) {
	switch raw {
	case "automatic", "auto":
		return VolumeAutomatic, nil
	case "zfs":
		return VolumeZfs, nil
	case "directory":
		return VolumeDirectory, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVolumeKind, raw)
	}
}

// Target selects whether a hook runs in the host context or inside the
// zone's containment, per §4.10. Grounded on
// original_source/zonys-core/src/zone/configuration/version1/jail/execute/create/on.rs,
// whose hook entry is a serde-tagged enum on a "target" field with
// "parent"/"child" variants.
type Target string

const (
	TargetParent Target = "parent"
	TargetChild  Target = "child"
)

// Program is a single hook invocation: a program path, its arguments and
// its environment, each rendered through the template engine before
// execution, plus the target context it runs in.
type Program struct {
	Target               Target            `yaml:"target"`
	Program              string            `yaml:"program"`
	Arguments            []string          `yaml:"arguments,omitempty"`
	EnvironmentVariables map[string]string `yaml:"environment_variables,omitempty"`
}

// UnmarshalYAML defaults an absent/empty target to "child" — the
// containment-local case is the common one in practice (most hooks run
// inside the jail being built), and defaulting here means existing
// configuration documents that predate the target field still parse.
func (p *Program) UnmarshalYAML(value *yaml.Node) error {
	type rawProgram Program

	var raw rawProgram
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Target == "" {
		raw.Target = TargetChild
	} else if raw.Target != TargetParent && raw.Target != TargetChild {
		return fmt.Errorf("%w: %q", ErrUnknownTarget, raw.Target)
	}

	*p = Program(raw)

	return nil
}

// CreateHooks holds the hooks run during a zone's create transition.
// There is no "before" list: create is the first transition, so nothing
// can run ahead of it.
type CreateHooks struct {
	On    []Program `yaml:"on,omitempty"`
	After []Program `yaml:"after,omitempty"`
}

// StartHooks holds the hooks run during a zone's start transition.
type StartHooks struct {
	Before []Program `yaml:"before,omitempty"`
	On     []Program `yaml:"on,omitempty"`
	After  []Program `yaml:"after,omitempty"`
}

// StopHooks holds the hooks run during a zone's stop transition.
type StopHooks struct {
	Before []Program `yaml:"before,omitempty"`
	On     []Program `yaml:"on,omitempty"`
	After  []Program `yaml:"after,omitempty"`
}

// DestroyHooks holds the hooks run during a zone's destroy transition.
// There is no "after" list: destroy is the last transition, so nothing
// can meaningfully run once the root is gone.
type DestroyHooks struct {
	Before []Program `yaml:"before,omitempty"`
	On     []Program `yaml:"on,omitempty"`
}

// Execute groups the per-transition hook lists of a jail-typed node.
type Execute struct {
	Create  *CreateHooks  `yaml:"create,omitempty"`
	Start   *StartHooks   `yaml:"start,omitempty"`
	Stop    *StopHooks    `yaml:"stop,omitempty"`
	Destroy *DestroyHooks `yaml:"destroy,omitempty"`
}

// Directive is one node of the human-authored configuration tree, as
// read from a YAML document. Only the "jail" type is implemented; any
// other Type value is a hard error at resolve time.
type Directive struct {
	From      string   `yaml:"-"`
	Includes  []string `yaml:"-"`
	Tags      []string `yaml:"-"`
	Variables map[string]interface{} `yaml:"-"`

	Type string `yaml:"-"`

	Volume           *VolumeKind `yaml:"-"`
	StartAfterCreate *bool       `yaml:"-"`
	DestroyAfterStop *bool       `yaml:"-"`

	Execute *Execute `yaml:"-"`

	// FromWorkPath is accepted on read and otherwise ignored: it named a
	// working-directory override in the original implementation that
	// this port never needed, since the resolver already threads a
	// working-directory stack through every include. Never written back.
	FromWorkPath string `yaml:"-"`
}

// rawDirective mirrors the wire shape exactly, including both accepted
// spellings of the volume-kind key, so UnmarshalYAML can decode once and
// then validate/normalize by hand.
type rawDirective struct {
	Version string `yaml:"version"`

	From      string                 `yaml:"from,omitempty"`
	Includes  []string               `yaml:"includes,omitempty"`
	Tags      []string               `yaml:"tags,omitempty"`
	Variables map[string]interface{} `yaml:"variables,omitempty"`

	Type string `yaml:"type"`

	// file_system is the documented key (§6); volume is accepted as an
	// alias for configuration authored against the older field name.
	// When both are present, file_system wins.
	FileSystem string `yaml:"file_system,omitempty"`
	Volume     string `yaml:"volume,omitempty"`

	StartAfterCreate *bool `yaml:"start_after_create,omitempty"`
	DestroyAfterStop *bool `yaml:"destroy_after_stop,omitempty"`

	Execute *Execute `yaml:"execute,omitempty"`

	FromWorkPath string `yaml:"from_work_path,omitempty"`
}

// UnmarshalYAML validates the version discriminator, the type
// discriminator, and normalizes the file_system/volume alias into a
// single VolumeKind.
func (d *Directive) UnmarshalYAML(value *yaml.Node) error {
	var raw rawDirective
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if !acceptedVersions[raw.Version] {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, raw.Version)
	}

	if raw.Type != "jail" {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, raw.Type)
	}

	d.From = raw.From
	d.Includes = raw.Includes
	d.Tags = raw.Tags
	d.Variables = raw.Variables
	d.Type = raw.Type
	d.StartAfterCreate = raw.StartAfterCreate
	d.DestroyAfterStop = raw.DestroyAfterStop
	d.Execute = raw.Execute
	d.FromWorkPath = raw.FromWorkPath

	kindSource := raw.FileSystem
	if kindSource == "" {
		kindSource = raw.Volume
	}

	if kindSource != "" {
		kind, err := parseVolumeKind(kindSource)
		if err != nil {
			return err
		}
		d.Volume = &kind
	}

	return nil
}

// MarshalYAML emits the canonical wire shape: version "1", file_system
// (never the volume alias) and every other field verbatim.
func (d Directive) MarshalYAML() (interface{}, error) {
	raw := rawDirective{
		Version:          CurrentVersion,
		From:             d.From,
		Includes:         d.Includes,
		Tags:             d.Tags,
		Variables:        d.Variables,
		Type:             "jail",
		StartAfterCreate: d.StartAfterCreate,
		DestroyAfterStop: d.DestroyAfterStop,
		Execute:          d.Execute,
	}

	if d.Volume != nil {
		raw.FileSystem = string(*d.Volume)
	}

	return raw, nil
}
