package seed

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeTestTxz(t *testing.T, path string, files map[string]string) {
	t.Helper()

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)

	for name, contents := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(contents)),
		}))
		_, err := tw.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	xw, err := xz.NewWriter(f)
	require.NoError(t, err)

	_, err = xw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, xw.Close())
}

func TestHandleLocalPathUnpacksTxz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "base.txz")
	writeTestTxz(t, archivePath, map[string]string{"etc/hostname": "web01\n"})

	root := t.TempDir()
	require.NoError(t, Handle(archivePath, root))

	got, err := os.ReadFile(filepath.Join(root, "etc", "hostname"))
	require.NoError(t, err)
	require.Equal(t, "web01\n", string(got))
}

func TestHandleFileSchemeUnpacksTxz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "base.txz")
	writeTestTxz(t, archivePath, map[string]string{"marker": "present"})

	root := t.TempDir()
	require.NoError(t, Handle("file://"+archivePath, root))

	got, err := os.ReadFile(filepath.Join(root, "marker"))
	require.NoError(t, err)
	require.Equal(t, "present", string(got))
}

func TestHandleUnsupportedScheme(t *testing.T) {
	err := Handle("ftp://example.com/base.txz", t.TempDir())
	require.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestHandleUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "base.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("not actually a txz"), 0o644))

	err := Handle(path, t.TempDir())
	require.ErrorIs(t, err, ErrUnsupportedExtension)
}
