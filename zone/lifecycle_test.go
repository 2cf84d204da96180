package zone

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"zonys/config"
	"zonys/identity"
	"zonys/volume"
)

func hookUnit(onProgram string) *config.Unit {
	kind := config.VolumeDirectory
	return &config.Unit{
		Type:   "jail",
		Volume: &kind,
		Execute: &config.Execute{
			Start: &config.StartHooks{On: []config.Program{{Program: onProgram, Target: config.TargetChild}}},
			Stop:  &config.StopHooks{On: []config.Program{{Program: onProgram, Target: config.TargetChild}}},
		},
	}
}

func newDirectoryZone(t *testing.T, unit *config.Unit) *Zone {
	t.Helper()
	dir := t.TempDir()

	id, err := identity.Generate(testBase(t, dir))
	require.NoError(t, err)

	v, err := volume.New(config.NewReader(unit).VolumeKind(), id)
	require.NoError(t, err)
	require.NoError(t, v.Create())

	require.NoError(t, writeUnit(id.ToConfigPath(), unit))

	return &Zone{Identity: id, Unit: unit}
}

func TestStartCreatesJailAndRunsHooks(t *testing.T) {
	fj := withFakeJail(t)

	z := newDirectoryZone(t, hookUnit("/bin/true"))

	require.NoError(t, Start(context.Background(), z))
	require.True(t, z.Running())
	require.Len(t, fj.execs, 1)
	require.Equal(t, "/bin/true", fj.execs[0].program)
}

func TestStartFailsIfAlreadyRunning(t *testing.T) {
	withFakeJail(t)

	z := newDirectoryZone(t, hookUnit("/bin/true"))
	require.NoError(t, Start(context.Background(), z))

	err := Start(context.Background(), z)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestStopRunsHooksAndClearsHandle(t *testing.T) {
	fj := withFakeJail(t)

	z := newDirectoryZone(t, hookUnit("/bin/true"))
	require.NoError(t, Start(context.Background(), z))

	stopped, err := Stop(context.Background(), z)
	require.NoError(t, err)
	require.NotNil(t, stopped)
	require.False(t, stopped.Running())
	require.Len(t, fj.execs, 2)
}

func TestStopFailsIfNotRunning(t *testing.T) {
	withFakeJail(t)

	z := newDirectoryZone(t, hookUnit("/bin/true"))

	_, err := Stop(context.Background(), z)
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestStopWithDestroyAfterStopDestroysAndReturnsNil(t *testing.T) {
	withFakeJail(t)
	withEmptyPool(t)

	unit := hookUnit("/bin/true")
	destroyAfter := true
	unit.DestroyAfterStop = &destroyAfter

	z := newDirectoryZone(t, unit)
	require.NoError(t, Start(context.Background(), z))

	result, err := Stop(context.Background(), z)
	require.NoError(t, err)
	require.Nil(t, result)
	require.NoFileExists(t, z.Identity.ToConfigPath())
}

func TestDestroyFailsIfRunning(t *testing.T) {
	withFakeJail(t)

	z := newDirectoryZone(t, hookUnit("/bin/true"))
	require.NoError(t, Start(context.Background(), z))

	err := Destroy(context.Background(), z)
	require.ErrorIs(t, err, ErrIsRunning)
}

func TestDestroyRemovesVolumeAndConfig(t *testing.T) {
	withFakeJail(t)
	withEmptyPool(t)

	z := newDirectoryZone(t, directoryUnit())

	require.NoError(t, Destroy(context.Background(), z))
	require.NoDirExists(t, z.Identity.ToDirectoryPath())
	require.NoFileExists(t, z.Identity.ToConfigPath())
}
