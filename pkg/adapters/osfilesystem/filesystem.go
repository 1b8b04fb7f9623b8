// Package osfilesystem implements ports.FileSystem on the local disk.
package osfilesystem

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/user/av1still/pkg/ports"
)

// FileSystem implements ports.FileSystem using the os package. Writes go
// through a temporary file that is renamed into place.
type FileSystem struct {
	perm os.FileMode
}

// New creates a new FileSystem that writes files with mode 0644.
func New() *FileSystem {
	return &FileSystem{perm: 0o644}
}

// ReadFile reads the entire contents of a file.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Open opens a file for reading.
func (f *FileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// WriteFile atomically replaces path with data, creating parent
// directories as needed.
func (f *FileSystem) WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return renameio.WriteFile(path, data, f.perm)
}

// MkdirAll creates a directory and all parent directories.
func (f *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Exists checks if a file or directory exists.
func (f *FileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

var _ ports.FileSystem = (*FileSystem)(nil)
