// Package library defines the artifact file-system abstraction: the
// directory tree under which patched hack files are stored, one folder per
// category with tier-ordered subfolders.
package library

import "time"

// ArtifactInfo is a lightweight description returned by list operations.
type ArtifactInfo struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for artifact file operations. All paths are
// relative to the library root.
type Provider interface {
	// List walks dir and returns metadata for every artifact file under it.
	List(dir string) ([]ArtifactInfo, error)
	// Exists reports whether a file is present at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Copy duplicates the file at src to dst, creating parent directories.
	Copy(src, dst string) error
	// Delete removes the file at path.
	Delete(path string) error
	// Abs resolves a library-relative path to an absolute one.
	Abs(path string) (string, error)
	// Rel converts an absolute path under the root back to a relative one.
	Rel(abs string) (string, error)
	// Root returns the absolute library root directory.
	Root() string
}
