// Package fsutil provides the filesystem handle used by maintenance steps.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// FileSystem is a thin layer over afero so steps can run against the real
// disk or an in-memory tree.
type FileSystem struct {
	fs afero.Fs
}

// New wraps an afero filesystem.
func New(fs afero.Fs) *FileSystem {
	return &FileSystem{fs: fs}
}

// NewPhysical returns a FileSystem backed by the operating system.
func NewPhysical() *FileSystem {
	return New(afero.NewOsFs())
}

// NewMemory returns a FileSystem held entirely in memory.
func NewMemory() *FileSystem {
	return New(afero.NewMemMapFs())
}

// Afero exposes the underlying filesystem.
func (f *FileSystem) Afero() afero.Fs {
	return f.fs
}

// TryDeleteFile removes path and reports whether the file is gone afterwards.
// A missing file counts as deleted.
func (f *FileSystem) TryDeleteFile(path string) bool {
	err := f.fs.Remove(path)
	return err == nil || os.IsNotExist(err)
}

// FileExists returns true if path exists and is not a directory.
func (f *FileSystem) FileExists(path string) bool {
	info, err := f.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// DirectoryExists returns true if path exists and is a directory.
func (f *FileSystem) DirectoryExists(path string) bool {
	ok, err := afero.DirExists(f.fs, path)
	return err == nil && ok
}

// ItemInfo describes one directory entry.
type ItemInfo struct {
	Name  string
	Path  string
	IsDir bool
	Size  int64
}

// ItemsInDirectory lists the entries of dir sorted by name.
func (f *FileSystem) ItemsInDirectory(dir string) ([]ItemInfo, error) {
	infos, err := afero.ReadDir(f.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	items := make([]ItemInfo, 0, len(infos))
	for _, info := range infos {
		items = append(items, ItemInfo{
			Name:  info.Name(),
			Path:  filepath.Join(dir, info.Name()),
			IsDir: info.IsDir(),
			Size:  info.Size(),
		})
	}
	return items, nil
}

// MkdirAll creates dir and any missing parents.
func (f *FileSystem) MkdirAll(dir string) error {
	return f.fs.MkdirAll(dir, 0755)
}

// ReadFile returns the contents of path.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(f.fs, path)
}

// WriteFileAtomic writes data to a temporary file in the target directory,
// syncs it, then renames it over path.
func (f *FileSystem) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := f.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("atomic write mkdir: %w", err)
	}
	tmp, err := afero.TempFile(f.fs, dir, ".scalar-tmp-*")
	if err != nil {
		return fmt.Errorf("atomic write create tmp: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			f.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("atomic write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("atomic write fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomic write close: %w", err)
	}
	if err := f.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("atomic write chmod: %w", err)
	}
	if err := f.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic write rename: %w", err)
	}

	success = true
	return nil
}
