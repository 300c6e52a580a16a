// Package testutil provides shared test helpers for setting up catalogs
// and artifact libraries.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mjott/hackshelf/internal/catalog"
	"github.com/mjott/hackshelf/internal/library"
)

// Logger returns a logger that discards everything, keeping test output
// readable.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStore creates a catalog backed by a document inside a temporary
// directory that is automatically cleaned up.
func TestStore(t *testing.T) *catalog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	store, err := catalog.Open(path, Logger())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// TestLibrary creates a temporary artifact library with an FS provider.
func TestLibrary(t *testing.T) (string, *library.FS) {
	t.Helper()
	dir := t.TempDir()
	lib, err := library.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, lib
}
