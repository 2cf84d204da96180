package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDirectiveAcceptsEveryVersionSpelling(t *testing.T) {
	for _, version := range []string{"1", "latest", "experimental"} {
		doc := "version: " + version + "\ntype: jail\n"

		var d Directive
		require.NoError(t, yaml.Unmarshal([]byte(doc), &d), version)
	}
}

func TestDirectiveRejectsUnknownVersion(t *testing.T) {
	var d Directive
	err := yaml.Unmarshal([]byte("version: 2\ntype: jail\n"), &d)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDirectiveRejectsUnknownType(t *testing.T) {
	var d Directive
	err := yaml.Unmarshal([]byte("version: 1\ntype: vm\n"), &d)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDirectiveAcceptsVolumeAlias(t *testing.T) {
	var d Directive
	require.NoError(t, yaml.Unmarshal([]byte("version: 1\ntype: jail\nvolume: zfs\n"), &d))
	require.NotNil(t, d.Volume)
	require.Equal(t, VolumeZfs, *d.Volume)
}

func TestDirectiveFileSystemAliasVariants(t *testing.T) {
	var d Directive
	require.NoError(t, yaml.Unmarshal([]byte("version: 1\ntype: jail\nfile_system: auto\n"), &d))
	require.Equal(t, VolumeAutomatic, *d.Volume)
}

func TestDirectiveFileSystemTakesPrecedenceOverVolume(t *testing.T) {
	var d Directive
	doc := "version: 1\ntype: jail\nfile_system: directory\nvolume: zfs\n"
	require.NoError(t, yaml.Unmarshal([]byte(doc), &d))
	require.Equal(t, VolumeDirectory, *d.Volume)
}

func TestDirectiveFromWorkPathIgnored(t *testing.T) {
	var d Directive
	doc := "version: 1\ntype: jail\nfrom_work_path: /anything\n"
	require.NoError(t, yaml.Unmarshal([]byte(doc), &d))
	require.Equal(t, "/anything", d.FromWorkPath)
}

func TestUnitRoundTrip(t *testing.T) {
	trueVal := true
	zfs := VolumeZfs

	u := &Unit{
		Tags:             []string{"a", "b"},
		Variables:        map[string]interface{}{"pool": "tank"},
		Type:             "jail",
		Volume:           &zfs,
		StartAfterCreate: &trueVal,
		Execute: &Execute{
			Create: &CreateHooks{On: []Program{{Target: TargetChild, Program: "/bin/true"}}},
		},
		Units: []*Unit{NewUnit()},
	}

	out, err := yaml.Marshal(u)
	require.NoError(t, err)

	var decoded Unit
	require.NoError(t, yaml.Unmarshal(out, &decoded))

	require.Equal(t, u.Tags, decoded.Tags)
	require.Equal(t, u.Variables, decoded.Variables)
	require.Equal(t, *u.Volume, *decoded.Volume)
	require.Equal(t, *u.StartAfterCreate, *decoded.StartAfterCreate)
	require.Len(t, decoded.Units, 1)
	require.Equal(t, u.Execute.Create.On, decoded.Execute.Create.On)
}

func TestUnitMarshalAlwaysUsesFileSystemKey(t *testing.T) {
	zfs := VolumeZfs
	u := &Unit{Type: "jail", Volume: &zfs}

	out, err := yaml.Marshal(u)
	require.NoError(t, err)
	require.Contains(t, string(out), "file_system: zfs")
	require.NotContains(t, string(out), "volume:")
}
