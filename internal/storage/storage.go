// Package storage is the file-system boundary for prompt, output and
// assessment files. Everything above it talks to a Store, so tests can run
// against an in-memory file system.
package storage

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// filePerm is applied to every file the assessor writes.
const filePerm = 0o644

// Store is the narrow set of file operations the assessor needs.
type Store interface {
	// List returns the regular files directly inside dir, in listing order.
	List(dir string) ([]string, error)
	// Read returns the full contents of a file.
	Read(path string) (string, error)
	// Write replaces the file at path with content.
	Write(path, content string) error
	// DirExists reports whether dir exists and is a directory.
	DirExists(dir string) (bool, error)
	// FileExists reports whether path exists and is a regular file.
	FileExists(path string) (bool, error)
}

// FS implements Store on top of an afero file system.
type FS struct {
	fs afero.Fs
}

// New wraps an afero file system.
func New(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// NewOS returns a Store backed by the operating system's file system.
func NewOS() *FS {
	return New(afero.NewOsFs())
}

// NewMemory returns a Store backed by an in-memory file system.
func NewMemory() *FS {
	return New(afero.NewMemMapFs())
}

// Fs exposes the underlying file system.
func (s *FS) Fs() afero.Fs {
	return s.fs
}

// List returns the regular files in dir sorted by name.
func (s *FS) List(dir string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// Read returns the contents of path.
func (s *FS) Read(path string) (string, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write overwrites path with content. Writes are not atomic.
func (s *FS) Write(path, content string) error {
	return afero.WriteFile(s.fs, path, []byte(content), filePerm)
}

// DirExists reports whether dir is an existing directory.
func (s *FS) DirExists(dir string) (bool, error) {
	return afero.DirExists(s.fs, dir)
}

// FileExists reports whether path is an existing regular file.
func (s *FS) FileExists(path string) (bool, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
