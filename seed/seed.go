// Package seed populates a freshly created zone root from a local or
// remote archive, per spec.md §4.9. Grounded on
// original_source/zonys-core/src/handler/from.rs's FromHandler: the
// scheme dispatch (empty/file local, http/https fetch-then-unpack,
// anything else unsupported) and the extension-selects-unpacker rule
// (only .txz recognized) are carried over verbatim in shape; the
// archive decoder is github.com/ulikunitz/xz (the pack's own xz
// dependency, pulled in by rclone-rclone's press backend) plus stdlib
// archive/tar in place of the original's xz2/tar crates.
package seed

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"

	"github.com/ulikunitz/xz"

	"zonys/volume"
)

// Handle populates rootDirectoryPath from the archive named by from, a
// local path or file/http/https URL.
func Handle(from string, rootDirectoryPath string) error {
	u, err := url.Parse(from)
	if err != nil {
		return fmt.Errorf("parsing seed reference %q: %w", from, err)
	}

	switch u.Scheme {
	case "", "file":
		localPath := from
		if u.Scheme == "file" {
			localPath = u.Path
		}

		return handleLocalPath(localPath, rootDirectoryPath)

	case "http", "https":
		return handleRemote(u, rootDirectoryPath)

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func handleLocalPath(localPath string, rootDirectoryPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening seed archive %s: %w", localPath, err)
	}
	defer file.Close()

	return handleLocalFile(localPath, file, rootDirectoryPath)
}

func handleLocalFile(name string, file *os.File, rootDirectoryPath string) error {
	switch ext := path.Ext(name); ext {
	case ".txz":
		reader, err := xz.NewReader(file)
		if err != nil {
			return fmt.Errorf("decompressing seed archive %s: %w", name, err)
		}

		if err := volume.ExtractTar(reader, rootDirectoryPath); err != nil {
			return fmt.Errorf("unpacking seed archive %s: %w", name, err)
		}

		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
}

func handleRemote(u *url.URL, rootDirectoryPath string) error {
	resp, err := http.Get(u.String())
	if err != nil {
		return fmt.Errorf("fetching seed archive %s: %w", u, err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "zonys-seed-*")
	if err != nil {
		return fmt.Errorf("creating temporary file for seed archive: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("downloading seed archive %s: %w", u, err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing downloaded seed archive: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding downloaded seed archive: %w", err)
	}

	return handleLocalFile(u.Path, tmp, rootDirectoryPath)
}
