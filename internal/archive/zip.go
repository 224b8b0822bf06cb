// Package archive extracts zip archives into a directory and packs a directory
// tree back into a zip stream.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidArchive is returned when the input is not a readable zip archive.
	ErrInvalidArchive = errors.New("invalid zip archive")

	// ErrUnsafePath is returned for entries that would land outside the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")

	// ErrLimitExceeded is returned when an archive has too many entries or
	// expands beyond the configured size.
	ErrLimitExceeded = errors.New("archive exceeds extraction limits")
)

// Limits bounds what Extract will write. Zero values disable a limit.
type Limits struct {
	MaxEntries int
	MaxBytes   int64
}

// Filter selects which files, by slash-separated relative path, go into an archive.
type Filter func(rel string) bool

// ExtFilter keeps files whose name ends in one of exts, ignoring case.
func ExtFilter(exts ...string) Filter {
	lowered := make([]string, len(exts))
	for i, ext := range exts {
		lowered[i] = strings.ToLower(ext)
	}
	return func(rel string) bool {
		name := strings.ToLower(rel)
		for _, ext := range lowered {
			if strings.HasSuffix(name, ext) {
				return true
			}
		}
		return false
	}
}

// ExtractFile extracts the zip archive at src into dest, which must exist.
// The archive directory is validated before anything is written.
func ExtractFile(src, dest string, limits Limits) error {
	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = zr.Close()
		return fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer zr.Close()

	if err := checkEntries(zr.File, limits); err != nil {
		return err
	}

	var written int64
	for _, f := range zr.File {
		n, err := extractEntry(f, dest, limits.MaxBytes-written, limits.MaxBytes > 0)
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}

func checkEntries(files []*zip.File, limits Limits) error {
	if limits.MaxEntries > 0 && len(files) > limits.MaxEntries {
		return fmt.Errorf("%w: %d entries, limit %d", ErrLimitExceeded, len(files), limits.MaxEntries)
	}

	var declared uint64
	for _, f := range files {
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return fmt.Errorf("%w: %q", ErrUnsafePath, f.Name)
		}
		declared += f.UncompressedSize64
	}
	if limits.MaxBytes > 0 && declared > uint64(limits.MaxBytes) {
		return fmt.Errorf("%w: %d bytes declared, limit %d", ErrLimitExceeded, declared, limits.MaxBytes)
	}
	return nil
}

func extractEntry(f *zip.File, dest string, remaining int64, limited bool) (int64, error) {
	target := filepath.Join(dest, filepath.FromSlash(f.Name))

	if f.FileInfo().IsDir() {
		return 0, os.MkdirAll(target, 0o755)
	}
	if !f.Mode().IsRegular() {
		// Symlinks and devices are skipped.
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %v", ErrInvalidArchive, f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	var src io.Reader = rc
	if limited {
		// Declared sizes can lie; never write more than what is left.
		src = io.LimitReader(rc, remaining+1)
	}
	n, err := io.Copy(out, src)
	if err != nil {
		return n, fmt.Errorf("%w: read %s: %v", ErrInvalidArchive, f.Name, err)
	}
	if limited && n > remaining {
		return n, fmt.Errorf("%w: %s expands past the size limit", ErrLimitExceeded, f.Name)
	}
	return n, out.Close()
}

// CreateFromDir writes a deflated zip of every regular file under root that
// keep accepts to w. Entry names are slash-separated paths relative to root.
// It returns the number of entries written.
func CreateFromDir(root string, w io.Writer, keep Filter) (int, error) {
	zw := zip.NewWriter(w)
	count := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if keep != nil && !keep(rel) {
			return nil
		}

		if err := addFile(zw, path, rel, d); err != nil {
			return fmt.Errorf("add %s: %w", rel, err)
		}
		count++
		return nil
	})
	if err != nil {
		_ = zw.Close()
		return count, err
	}
	return count, zw.Close()
}

func addFile(zw *zip.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}
