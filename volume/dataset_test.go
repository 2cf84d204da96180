package volume

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"zonys/identity"
	"zonys/internal/pool"
)

type fakeSnapshot struct {
	name     string
	destroys *int32mu
}

func (s *fakeSnapshot) Name() string { return s.name }
func (s *fakeSnapshot) Destroy() error {
	s.destroys.inc()
	return nil
}

type int32mu struct {
	mu sync.Mutex
	n  int
}

func (m *int32mu) inc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
}

func (m *int32mu) get() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

type fakeSnapshotIter struct {
	snapshots []pool.Snapshot
	idx       int
}

func (it *fakeSnapshotIter) Next() (pool.Snapshot, bool) {
	if it.idx >= len(it.snapshots) {
		return nil, false
	}
	s := it.snapshots[it.idx]
	it.idx++
	return s, true
}

func (it *fakeSnapshotIter) Err() error { return nil }

type fakeDataset struct {
	name      string
	mounted   bool
	snapshots []pool.Snapshot
	sent      *bytes.Buffer
}

func (d *fakeDataset) Name() string      { return d.name }
func (d *fakeDataset) Mount() error      { d.mounted = true; return nil }
func (d *fakeDataset) Unmount() error    { d.mounted = false; return nil }
func (d *fakeDataset) UnmountAll() error { d.mounted = false; return nil }
func (d *fakeDataset) Destroy() error    { return nil }
func (d *fakeDataset) Send(w io.Writer) error {
	_, err := w.Write([]byte("dataset-stream:" + d.name))
	return err
}
func (d *fakeDataset) Snapshots() (pool.SnapshotIterator, error) {
	return &fakeSnapshotIter{snapshots: d.snapshots}, nil
}

type fakePool struct {
	mu       sync.Mutex
	datasets map[string]*fakeDataset
	existing map[string]bool
}

func newFakePool() *fakePool {
	return &fakePool{datasets: map[string]*fakeDataset{}, existing: map[string]bool{}}
}

func (p *fakePool) Create(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.datasets[name] = &fakeDataset{name: name}
	p.existing[name] = true
	return nil
}

func (p *fakePool) Open(name string) (pool.Dataset, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.datasets[name]
	if !ok {
		return nil, false, nil
	}
	return d, true, nil
}

func (p *fakePool) Exists(name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.existing[name], nil
}

func (p *fakePool) UnmountAll(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d, ok := p.datasets[name]; ok {
		d.mounted = false
	}
	return nil
}

func (p *fakePool) Destroy(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.datasets, name)
	delete(p.existing, name)
	return nil
}

func (p *fakePool) Receive(name string, r io.Reader) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := &bytes.Buffer{}
	io.Copy(buf, r)
	p.datasets[name] = &fakeDataset{name: name}
	p.existing[name] = true
	return nil
}

func withFakePool(t *testing.T) *fakePool {
	t.Helper()
	prior := pool.DefaultPool
	fp := newFakePool()
	pool.DefaultPool = fp
	t.Cleanup(func() { pool.DefaultPool = prior })
	return fp
}

func testDatasetIdentity(t *testing.T) identity.Identity {
	t.Helper()
	id, err := identity.Generate(identity.Base{"tank", "zones"})
	require.NoError(t, err)
	return id
}

func TestDatasetVolumeCreate(t *testing.T) {
	withFakePool(t)
	id := testDatasetIdentity(t)

	v := newDatasetVolume(id)
	require.NoError(t, v.Create())
	require.ErrorIs(t, v.Create(), ErrAlreadyExists)
}

func TestDatasetVolumeDestroyDestroysAllSnapshots(t *testing.T) {
	fp := withFakePool(t)
	id := testDatasetIdentity(t)

	v := newDatasetVolume(id)
	require.NoError(t, v.Create())

	counter := &int32mu{}
	fp.datasets[v.path].snapshots = []pool.Snapshot{
		&fakeSnapshot{name: "s1", destroys: counter},
		&fakeSnapshot{name: "s2", destroys: counter},
		&fakeSnapshot{name: "s3", destroys: counter},
	}

	require.NoError(t, v.Destroy())
	require.Equal(t, 3, counter.get())

	exists, err := fp.Exists(v.path)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestDatasetVolumeSend(t *testing.T) {
	withFakePool(t)
	id := testDatasetIdentity(t)

	v := newDatasetVolume(id)
	require.NoError(t, v.Create())

	var buf bytes.Buffer
	require.NoError(t, v.Send(&buf))
	require.Contains(t, buf.String(), "dataset-stream:")
}

func TestDatasetVolumeCleanupToleratesAbsence(t *testing.T) {
	withFakePool(t)
	id := testDatasetIdentity(t)

	v := newDatasetVolume(id)
	require.NoError(t, v.Cleanup())
}
