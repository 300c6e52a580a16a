package library

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the library root directory
}

// NewFS creates a new FS provider rooted at the given directory. The
// directory is created when absent.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("library: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("library: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("library: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute library root directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the library root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("library: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("library: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("library: path escapes library root: %s", rel)
	}
	return abs, nil
}

// Abs resolves a library-relative path to an absolute one.
func (f *FS) Abs(path string) (string, error) {
	return f.safePath(path)
}

// Rel converts an absolute path under the root back to a relative one.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("library: path outside library root: %s", abs)
	}
	return rel, nil
}

// List walks dir (relative to root) and returns metadata for every file.
func (f *FS) List(dir string) ([]ArtifactInfo, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []ArtifactInfo
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, ArtifactInfo{
			Path:      rel,
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("library: list: %w", err)
	}
	return out, nil
}

// Exists reports whether a file is present at path.
func (f *FS) Exists(path string) bool {
	abs, err := f.safePath(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// Read returns the raw bytes of a library file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("library: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	return atomicWrite(abs, content)
}

// Copy duplicates src to dst. The copy streams through a temp file in the
// destination directory and is renamed into place, so a partially written
// duplicate is never visible.
func (f *FS) Copy(src, dst string) error {
	absSrc, err := f.safePath(src)
	if err != nil {
		return err
	}
	absDst, err := f.safePath(dst)
	if err != nil {
		return err
	}

	in, err := os.Open(absSrc)
	if err != nil {
		return fmt.Errorf("library: open source %s: %w", src, err)
	}
	defer in.Close()

	dir := filepath.Dir(absDst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("library: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".hackshelf-tmp-*")
	if err != nil {
		return fmt.Errorf("library: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return fmt.Errorf("library: copy: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("library: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("library: close temp: %w", err)
	}
	if err := os.Rename(tmpName, absDst); err != nil {
		return fmt.Errorf("library: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the library.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("library: delete %s: %w", path, err)
	}
	return nil
}

// atomicWrite writes content to abs via tmp file → fsync → rename.
func atomicWrite(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("library: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".hackshelf-tmp-*")
	if err != nil {
		return fmt.Errorf("library: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("library: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("library: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("library: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("library: rename: %w", err)
	}
	success = true
	return nil
}
