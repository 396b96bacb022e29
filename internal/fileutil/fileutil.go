// Package fileutil holds small filesystem helpers shared by the pipeline
// stages. Every stage output goes through a sibling temp file and a rename so
// readers never observe a half-written artifact.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TempSibling returns a hidden temp path next to dest that keeps dest's
// extension, so tools that pick a container from the name still work.
func TempSibling(dest string) string {
	dir := filepath.Dir(dest)
	base := filepath.Base(dest)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, "."+stem+".tmp"+ext)
}

// EnsureParent creates the parent directory of path.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

// Commit renames tmp over dest. tmp is removed when the rename fails.
func Commit(tmp, dest string) error {
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize %q: %w", dest, err)
	}
	return nil
}

// WriteAtomic streams fn's output into a temp sibling of path and renames it
// into place once fn and the close succeed.
func WriteAtomic(path string, perm os.FileMode, fn func(io.Writer) error) error {
	if err := EnsureParent(path); err != nil {
		return err
	}
	tmp := TempSibling(path)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return Commit(tmp, path)
}

// WriteFileAtomic replaces path with data.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// IsRegularFile reports whether path exists and is a regular file.
func IsRegularFile(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// StatFile returns os.ErrNotExist for missing paths and directories alike.
func StatFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, os.ErrNotExist)
	}
	return info, nil
}

// IsNotExist matches both os.ErrNotExist and fs.PathError variants.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
