package volume

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"zonys/identity"
)

func testDirIdentity(t *testing.T, dir string) identity.Identity {
	t.Helper()
	id, err := identity.Generate(identity.Base{dir[1:]})
	require.NoError(t, err)
	return id
}

func TestDirectoryVolumeCreateDestroy(t *testing.T) {
	dir := t.TempDir()
	id := testDirIdentity(t, dir)

	v := newDirectoryVolume(id)
	require.NoError(t, v.Create())
	require.DirExists(t, v.RootPath())

	require.ErrorIs(t, v.Create(), ErrAlreadyExists)

	require.NoError(t, v.Destroy())
	require.NoDirExists(t, v.RootPath())
}

func TestDirectoryVolumeCleanupIdempotent(t *testing.T) {
	dir := t.TempDir()
	id := testDirIdentity(t, dir)

	v := newDirectoryVolume(id)
	require.NoError(t, v.Cleanup())
	require.NoError(t, v.Create())
	require.NoError(t, v.Cleanup())
	require.NoError(t, v.Cleanup())
}

func TestDirectoryVolumeSendReceiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcID := testDirIdentity(t, dir)

	src := newDirectoryVolume(srcID)
	require.NoError(t, src.Create())
	require.NoError(t, os.MkdirAll(filepath.Join(src.RootPath(), "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src.RootPath(), "etc", "hostname"), []byte("web01\n"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, src.Send(&buf))

	destDir := t.TempDir()
	destID := testDirIdentity(t, destDir)
	dest := newDirectoryVolume(destID)

	require.NoError(t, dest.receive(&buf))

	got, err := os.ReadFile(filepath.Join(dest.RootPath(), "etc", "hostname"))
	require.NoError(t, err)
	require.Equal(t, "web01\n", string(got))
}

func TestDirectoryVolumeSnapshotsAlwaysEmpty(t *testing.T) {
	dir := t.TempDir()
	id := testDirIdentity(t, dir)

	snapshots, err := newDirectoryVolume(id).Snapshots()
	require.NoError(t, err)
	require.Empty(t, snapshots)
}
