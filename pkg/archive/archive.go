// Package archive unpacks compressed tarballs into provisioning directories.
package archive

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

var (
	// ErrUnsupported is returned for a file name with no known tarball suffix.
	ErrUnsupported = errors.New("unknown tarball suffix")
	// ErrUnsafePath is returned for entries that would land outside the target.
	ErrUnsafePath = errors.New("archive entry escapes target directory")
)

// Format is a tarball compression format, named by its file suffix.
type Format string

// Supported formats.
const (
	TarXZ  Format = ".tar.xz"
	TarGZ  Format = ".tar.gz"
	TGZ    Format = ".tgz"
	TarBZ2 Format = ".tar.bz2"
	TarZST Format = ".tar.zst"
)

var formats = []Format{TarXZ, TarGZ, TGZ, TarBZ2, TarZST}

// DetectFormat picks the format from a file name suffix.
func DetectFormat(name string) (Format, error) {
	for _, f := range formats {
		if strings.HasSuffix(name, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// BaseName returns the tarball file name with its suffix removed,
// e.g. "cmake-3.31.7-linux-x86_64" for "cmake-3.31.7-linux-x86_64.tar.gz".
func BaseName(name string) (string, error) {
	f, err := DetectFormat(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(filepath.Base(name), string(f)), nil
}

// ChooseTarget returns where a tarball should be unpacked. A missing or
// empty target is used as is; a non-empty one gets a subdirectory named
// after the tarball.
func ChooseTarget(tarball, target string) (string, error) {
	base, err := BaseName(tarball)
	if err != nil {
		return "", err
	}

	empty, err := isEmptyDir(target)
	if err != nil {
		return "", err
	}
	if empty {
		return target, nil
	}
	return filepath.Join(target, base), nil
}

// Extract unpacks tarball into (or within) target and returns the directory
// holding the contents. When the tarball unpacks a single directory named
// like the tarball, its contents are moved up a level.
func Extract(tarball, target string) (string, error) {
	final, err := ChooseTarget(tarball, target)
	if err != nil {
		return "", err
	}
	base, _ := BaseName(tarball)

	if err := os.MkdirAll(final, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", final, err)
	}

	if err := ExtractFile(tarball, final); err != nil {
		return "", err
	}

	if err := flatten(final, base); err != nil {
		return "", err
	}
	return final, nil
}

// ExtractFile unpacks tarball directly into dest without flattening.
func ExtractFile(tarball, dest string) error {
	format, err := DetectFormat(tarball)
	if err != nil {
		return err
	}

	f, err := os.Open(tarball)
	if err != nil {
		return fmt.Errorf("failed to open tarball: %w", err)
	}
	defer f.Close()

	if err := ExtractReader(f, format, dest); err != nil {
		return fmt.Errorf("failed to extract %s: %w", filepath.Base(tarball), err)
	}
	return nil
}

// ExtractReader decompresses r according to format and unpacks the tar
// stream into dest.
func ExtractReader(r io.Reader, format Format, dest string) error {
	stream, closer, err := decompress(r, format)
	if err != nil {
		return err
	}
	defer closer()

	return untar(stream, dest)
}

func decompress(r io.Reader, format Format) (io.Reader, func(), error) {
	noop := func() {}
	switch format {
	case TarXZ:
		zr, err := xz.NewReader(r)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return zr, noop, nil
	case TarGZ, TGZ:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case TarBZ2:
		return bzip2.NewReader(r), noop, nil
	case TarZST:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %s", ErrUnsupported, format)
	}
}

func untar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirMode(hdr)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
			}
			if _, err := safeJoin(dest, filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		case tar.TypeLink:
			src, err := safeJoin(dest, hdr.Linkname)
			if err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Link(src, target); err != nil {
				return err
			}
		default:
			// Devices, fifos and pax metadata are skipped.
		}
	}
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	os.Remove(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func dirMode(hdr *tar.Header) os.FileMode {
	return hdr.FileInfo().Mode().Perm() | 0700
}

// safeJoin joins name onto dest, rejecting entries that climb out of it.
func safeJoin(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(dest, cleaned), nil
}

func isEmptyDir(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// flatten moves dir/base/* up into dir when base is dir's only entry.
func flatten(dir, base string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) != 1 || entries[0].Name() != base || !entries[0].IsDir() {
		return nil
	}

	inner := filepath.Join(dir, base)
	children, err := os.ReadDir(inner)
	if err != nil {
		return err
	}

	// A child named like the parent would collide during the move.
	staged := inner
	for _, c := range children {
		if c.Name() == base {
			staged = inner + ".flatten"
			if err := os.Rename(inner, staged); err != nil {
				return err
			}
			break
		}
	}

	for _, c := range children {
		if err := os.Rename(filepath.Join(staged, c.Name()), filepath.Join(dir, c.Name())); err != nil {
			return fmt.Errorf("failed to move %s up: %w", c.Name(), err)
		}
	}
	return os.Remove(staged)
}
