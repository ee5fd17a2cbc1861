// Package storage is the file-system layer behind the inbox and export
// directories.
package storage

import "github.com/starford/arbor/internal/models"

// Provider performs file operations relative to one root directory.
type Provider interface {
	// List returns metadata for the regular files directly inside dir whose
	// extension is one of exts. No exts means every file. Subdirectories
	// and dot-files are skipped. Results are ordered by name.
	List(dir string, exts ...string) ([]models.FileMetadata, error)
	// Read returns the bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath, creating parent directories.
	Move(oldPath, newPath string) error
	// Abs resolves path against the root, rejecting escapes.
	Abs(path string) (string, error)
}
