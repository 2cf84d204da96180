package zone

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"zonys/config"
	"zonys/identity"
	"zonys/internal/jail"
	"zonys/internal/pool"
)

// emptyPool is a Pool with nothing in it, used so cleanup's unconditional
// probe of the zfs backend (alongside whichever backend a test actually
// exercises) doesn't dereference a nil internal/pool.DefaultPool.
type emptyPool struct{}

func (emptyPool) Create(name string) error                { return nil }
func (emptyPool) Open(name string) (pool.Dataset, bool, error) { return nil, false, nil }
func (emptyPool) Exists(name string) (bool, error)         { return false, nil }
func (emptyPool) UnmountAll(name string) error             { return nil }
func (emptyPool) Destroy(name string) error                { return nil }
func (emptyPool) Receive(name string, r io.Reader) error   { return nil }

func withEmptyPool(t *testing.T) {
	t.Helper()
	prior := pool.DefaultPool
	pool.DefaultPool = emptyPool{}
	t.Cleanup(func() { pool.DefaultPool = prior })
}

func testBase(t *testing.T, dir string) identity.Base {
	t.Helper()
	return identity.Base{dir[1:]}
}

func directoryUnit() *config.Unit {
	kind := config.VolumeDirectory
	return &config.Unit{Type: "jail", Volume: &kind}
}

// fakeJail is a minimal in-memory jail.Jail used across zone's tests so
// Start/Stop/Destroy/hook execution can be exercised without a real
// FreeBSD kernel.
type recordedExec struct {
	handle  jail.Handle
	program string
	argv    []string
}

type fakeHandle struct{ name string }

func (h *fakeHandle) Name() string { return h.name }

type fakeJail struct {
	created []jail.Params
	execs   []recordedExec
	failAt  string
}

func (j *fakeJail) Create(params jail.Params) (jail.Handle, error) {
	j.created = append(j.created, params)
	return &fakeHandle{name: params.Name}, nil
}

func (j *fakeJail) Execute(handle jail.Handle, program string, argv []string, env map[string]string, stdout, stderr io.Writer) error {
	j.execs = append(j.execs, recordedExec{handle: handle, program: program, argv: argv})
	if j.failAt != "" && program == j.failAt {
		return errors.New("fake: exit status 1")
	}
	return nil
}

func (j *fakeJail) Destroy(handle jail.Handle) error { return nil }

func (j *fakeJail) LookupByName(name string) (jail.Handle, bool, error) {
	for _, h := range j.created {
		if h.Name == name {
			return &fakeHandle{name: name}, true, nil
		}
	}
	return nil, false, nil
}

func withFakeJail(t *testing.T) *fakeJail {
	t.Helper()
	fj := &fakeJail{}
	prior := jail.DefaultJail
	jail.DefaultJail = fj
	t.Cleanup(func() { jail.DefaultJail = prior })
	return fj
}

func TestOpenReturnsNilForMissingZone(t *testing.T) {
	withFakeJail(t)

	dir := t.TempDir()
	id, err := identity.Generate(testBase(t, dir))
	require.NoError(t, err)

	z, err := Open(id)
	require.NoError(t, err)
	require.Nil(t, z)
}

func TestOpenRoundTripsWrittenUnit(t *testing.T) {
	withFakeJail(t)

	dir := t.TempDir()
	id, err := identity.Generate(testBase(t, dir))
	require.NoError(t, err)

	unit := directoryUnit()
	unit.Tags = []string{"web"}

	require.NoError(t, writeUnit(id.ToConfigPath(), unit))

	z, err := Open(id)
	require.NoError(t, err)
	require.NotNil(t, z)
	require.Equal(t, id, z.Identity)
	require.Contains(t, config.NewReader(z.Unit).Tags(), "web")
}

func TestAllListsWrittenZones(t *testing.T) {
	withFakeJail(t)

	dir := t.TempDir()
	base := testBase(t, dir)

	id1, err := identity.Generate(base)
	require.NoError(t, err)
	id2, err := identity.Generate(base)
	require.NoError(t, err)

	require.NoError(t, writeUnit(id1.ToConfigPath(), directoryUnit()))
	require.NoError(t, writeUnit(id2.ToConfigPath(), directoryUnit()))

	zones, err := All(base)
	require.NoError(t, err)
	require.Len(t, zones, 2)
}

func TestAllOnMissingBaseIsEmpty(t *testing.T) {
	dir := t.TempDir()
	base := identity.Base{dir[1:] + "/does-not-exist"}

	zones, err := All(base)
	require.NoError(t, err)
	require.Empty(t, zones)
}

func TestMatchFiltersByTag(t *testing.T) {
	withFakeJail(t)

	dir := t.TempDir()
	base := testBase(t, dir)

	webUnit := directoryUnit()
	webUnit.Tags = []string{"web"}
	webID, err := identity.Generate(base)
	require.NoError(t, err)
	require.NoError(t, writeUnit(webID.ToConfigPath(), webUnit))

	dbUnit := directoryUnit()
	dbUnit.Tags = []string{"db"}
	dbID, err := identity.Generate(base)
	require.NoError(t, err)
	require.NoError(t, writeUnit(dbID.ToConfigPath(), dbUnit))

	matched, err := Match(base, "web")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, webID, matched[0].Identity)
}

func TestMatchFiltersByUUID(t *testing.T) {
	withFakeJail(t)

	dir := t.TempDir()
	base := testBase(t, dir)

	id, err := identity.Generate(base)
	require.NoError(t, err)
	require.NoError(t, writeUnit(id.ToConfigPath(), directoryUnit()))

	matched, err := Match(base, id.UUID.String())
	require.NoError(t, err)
	require.Len(t, matched, 1)
}

func TestOpenPopulatesHandleWhenJailIsRunning(t *testing.T) {
	fj := withFakeJail(t)

	dir := t.TempDir()
	id, err := identity.Generate(testBase(t, dir))
	require.NoError(t, err)

	require.NoError(t, writeUnit(id.ToConfigPath(), directoryUnit()))

	_, err = fj.Create(jail.Params{Name: id.UUID.String()})
	require.NoError(t, err)

	z, err := Open(id)
	require.NoError(t, err)
	require.NotNil(t, z)
	require.True(t, z.Running())
}

func TestRunningReflectsHandle(t *testing.T) {
	z := &Zone{}
	require.False(t, z.Running())

	z.Handle = &fakeHandle{name: "x"}
	require.True(t, z.Running())
}

func TestVariablesIncludeZoneIdentityAndPaths(t *testing.T) {
	dir := t.TempDir()
	id, err := identity.Generate(testBase(t, dir))
	require.NoError(t, err)

	unit := directoryUnit()
	unit.Variables = map[string]interface{}{"Hostname": "web01"}

	z := &Zone{Identity: id, Unit: unit}
	vars := z.variables()

	require.Equal(t, "web01", vars["Hostname"])

	zoneVars, ok := vars["Zone"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, id.String(), zoneVars["Identifier"])

	paths, ok := zoneVars["Paths"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, id.ToDirectoryPath(), paths["Root"])
}
