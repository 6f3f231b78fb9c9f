// Package storage defines the vault file-system abstraction notes are synced into.
package storage

import "github.com/starford/granola-sync/internal/models"

// Provider is the document store. All paths are slash-separated and
// relative to the vault root.
type Provider interface {
	// Exists reports whether a file or directory is present at path.
	Exists(path string) (bool, error)
	// List returns metadata for every .md file under dir. A missing dir yields no entries.
	List(dir string) ([]models.NoteMetadata, error)
	// ListPaths returns every file under dir.
	ListPaths(dir string) ([]string, error)
	Read(path string) ([]byte, error)
	// Write creates or overwrites path atomically, creating parent directories.
	Write(path string, content []byte) error
	Delete(path string) error
	// Move renames oldPath to newPath, creating parent directories.
	Move(oldPath, newPath string) error
	// RemoveDir deletes an empty directory.
	RemoveDir(path string) error
}
