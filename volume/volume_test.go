package volume

import (
	"testing"

	"github.com/stretchr/testify/require"

	"zonys/config"
	"zonys/identity"
)

func TestNewAutomaticFallsBackToDirectoryWithoutAncestorDataset(t *testing.T) {
	withFakePool(t)

	dir := t.TempDir()
	id := testDirIdentity(t, dir)

	v, err := New(config.VolumeAutomatic, id)
	require.NoError(t, err)
	require.IsType(t, &directoryVolume{}, v)
}

func TestNewAutomaticPicksDatasetWhenAncestorExists(t *testing.T) {
	fp := withFakePool(t)
	id := testDatasetIdentity(t)
	fp.existing["tank"] = true

	v, err := New(config.VolumeAutomatic, id)
	require.NoError(t, err)
	require.IsType(t, &datasetVolume{}, v)
}

func TestNewExplicitKinds(t *testing.T) {
	withFakePool(t)
	id := testDatasetIdentity(t)

	v, err := New(config.VolumeZfs, id)
	require.NoError(t, err)
	require.IsType(t, &datasetVolume{}, v)

	v, err = New(config.VolumeDirectory, id)
	require.NoError(t, err)
	require.IsType(t, &directoryVolume{}, v)
}
