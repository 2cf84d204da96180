package volume

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"zonys/config"
	"zonys/identity"
)

// directoryVolume is a plain-directory zone root. spec.md §4.8 calls
// for a straightforward mkdir -p / rm -rf / tar stream; implemented
// directly against os and archive/tar rather than shelling out (unlike
// the teacher's util/shell wrapper, which exists for running
// user-configured hook programs, not the engine's own filesystem
// bookkeeping) — there's no ecosystem library that does mkdir/rm/tar
// more idiomatically than the standard library for this exact job.
type directoryVolume struct {
	id   identity.Identity
	root string
}

func newDirectoryVolume(id identity.Identity) *directoryVolume {
	return &directoryVolume{id: id, root: id.ToDirectoryPath()}
}

func (v *directoryVolume) RootPath() string {
	return v.root
}

func (v *directoryVolume) Kind() config.VolumeKind {
	return config.VolumeDirectory
}

func (v *directoryVolume) Create() error {
	if _, err := os.Stat(v.root); err == nil {
		return ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(v.root, 0o755); err != nil {
		return fmt.Errorf("creating root directory %s: %w", v.root, err)
	}

	return nil
}

func (v *directoryVolume) Destroy() error {
	if err := os.RemoveAll(v.root); err != nil {
		return fmt.Errorf("removing root directory %s: %w", v.root, err)
	}

	return nil
}

func (v *directoryVolume) Cleanup() error {
	return os.RemoveAll(v.root)
}

func (v *directoryVolume) Snapshots() ([]string, error) {
	return nil, nil
}

// Send streams the root as a tar archive, reading file metadata with
// Lstat so symlinks are archived as links rather than followed (§4.8's
// follow_symlinks=false).
func (v *directoryVolume) Send(w io.Writer) error {
	tw := tar.NewWriter(w)

	err := filepath.Walk(v.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}

		if relPath == "." {
			return nil
		}

		linkTarget := ""
		if info.Mode()&os.ModeSymlink != 0 {
			linkTarget, err = os.Readlink(path)
			if err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, linkTarget)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			if _, err := io.Copy(tw, f); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("archiving %s: %w", v.root, err)
	}

	return tw.Close()
}

func (v *directoryVolume) receive(r io.Reader) error {
	if err := os.MkdirAll(v.root, 0o755); err != nil {
		return fmt.Errorf("creating root directory %s: %w", v.root, err)
	}

	return ExtractTar(r, v.root)
}

// ExtractTar extracts a tar stream into dest, rejecting any entry whose
// resolved path escapes dest (guards against a crafted ../ entry in an
// untrusted stream). Exported so the seed package can unpack a .txz
// archive's decompressed tar stream into a freshly created root with
// the same extraction logic directory-volume receive uses.
func ExtractTar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar stream: %w", err)
		}

		target := filepath.Join(dest, header.Name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) && target != filepath.Clean(dest) {
			return fmt.Errorf("tar entry %q escapes destination", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.Symlink(header.Linkname, target); err != nil {
				return err
			}
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}

			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}

			_, copyErr := io.Copy(f, tr)
			closeErr := f.Close()

			if copyErr != nil {
				return copyErr
			}
			if closeErr != nil {
				return closeErr
			}
		}
	}
}
