package zone

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"zonys/config"
)

func writeDirective(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCreateWritesConfigurationAndVolume(t *testing.T) {
	withFakeJail(t)

	dir := t.TempDir()
	base := testBase(t, filepath.Join(dir, "zones"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "zones"), 0o755))

	directivePath := writeDirective(t, dir, "zone.yaml", `
version: "1"
type: jail
file_system: directory
`)

	id, err := Create(context.Background(), base, directivePath, nil)
	require.NoError(t, err)

	require.FileExists(t, id.ToConfigPath())

	z, err := Open(id)
	require.NoError(t, err)
	require.NotNil(t, z)
	require.Equal(t, config.VolumeDirectory, config.NewReader(z.Unit).VolumeKind())
	require.DirExists(t, id.ToDirectoryPath())
}

func TestCreateRunsHooksAndStartsWhenRequested(t *testing.T) {
	fj := withFakeJail(t)

	dir := t.TempDir()
	base := testBase(t, filepath.Join(dir, "zones"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "zones"), 0o755))

	directivePath := writeDirective(t, dir, "zone.yaml", `
version: "1"
type: jail
file_system: directory
start_after_create: true
execute:
  create:
    on:
      - target: child
        program: /sbin/create-hook
  start:
    on:
      - target: child
        program: /sbin/start-hook
`)

	id, err := Create(context.Background(), base, directivePath, nil)
	require.NoError(t, err)

	var programs []string
	for _, e := range fj.execs {
		programs = append(programs, e.program)
	}

	require.Contains(t, programs, "/sbin/create-hook")
	require.Contains(t, programs, "/sbin/start-hook")

	z, err := Open(id)
	require.NoError(t, err)
	require.NotNil(t, z)
}

func TestCreateCleansUpOnHookFailure(t *testing.T) {
	fj := withFakeJail(t)
	fj.failAt = "/sbin/broken-hook"
	withEmptyPool(t)

	dir := t.TempDir()
	base := testBase(t, filepath.Join(dir, "zones"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "zones"), 0o755))

	directivePath := writeDirective(t, dir, "zone.yaml", `
version: "1"
type: jail
file_system: directory
execute:
  create:
    on:
      - target: child
        program: /sbin/broken-hook
`)

	id, err := Create(context.Background(), base, directivePath, nil)
	require.Error(t, err)

	require.NoFileExists(t, id.ToConfigPath())
	require.NoDirExists(t, id.ToDirectoryPath())
}

func TestCreateWithTemplatedVariables(t *testing.T) {
	withFakeJail(t)

	dir := t.TempDir()
	base := testBase(t, filepath.Join(dir, "zones"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "zones"), 0o755))

	directivePath := writeDirective(t, dir, "zone.yaml", `
version: "1"
type: jail
file_system: directory
variables:
  Hostname: "{{ .Host }}"
`)

	id, err := Create(context.Background(), base, directivePath, map[string]interface{}{"Host": "web01"})
	require.NoError(t, err)

	z, err := Open(id)
	require.NoError(t, err)
	require.Equal(t, "{{ .Host }}", config.NewReader(z.Unit).Variables()["Hostname"])
}
