// Package fsutil writes capture artifacts without leaving partial files.
package fsutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gogpu/ggshot"
)

// tempSuffix marks in-flight files next to their destination.
const tempSuffix = ".tmp"

// EnsureDir creates dir and its parents. Failure is logged, not returned:
// a missing directory surfaces as an error from the write that needs it.
func EnsureDir(dir string) {
	if dir == "" || dir == "." {
		return
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		ggshot.Logger().Warn("ggshot: create directory", "dir", dir, "err", err)
	}
}

// WriteAtomic writes a file by streaming write into a uniquely named
// temporary file in the destination directory and renaming it over path
// once write, flush and close succeed. On failure the temporary file is
// removed and path is left untouched.
func WriteAtomic(path string, write func(io.Writer) error) (err error) {
	path = filepath.Clean(path)
	EnsureDir(filepath.Dir(path))

	tmp := path + "." + uuid.NewString() + tempSuffix
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // artifact paths are caller-provided
	if err != nil {
		return fmt.Errorf("fsutil: create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			if rmErr := os.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
				ggshot.Logger().Warn("ggshot: remove temp file", "path", tmp, "err", rmErr)
			}
		}
	}()

	bw := bufio.NewWriter(f)
	if err = write(bw); err != nil {
		return fmt.Errorf("fsutil: write %s: %w", path, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("fsutil: flush %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("fsutil: close %s: %w", path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("fsutil: rename %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
