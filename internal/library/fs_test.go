package library

import (
	"bytes"
	"path/filepath"
	"testing"
)

func tempLibrary(t *testing.T) *FS {
	t.Helper()
	lib, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return lib
}

func TestNewFSCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "library")
	if _, err := NewFS(root); err != nil {
		t.Fatalf("NewFS: %v", err)
	}
}

func TestWriteAndRead(t *testing.T) {
	lib := tempLibrary(t)
	content := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := lib.Write("Kaizo/03-Skilled/foo.bin", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := lib.Read("Kaizo/03-Skilled/foo.bin")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: got %x", got)
	}
}

func TestExists(t *testing.T) {
	lib := tempLibrary(t)
	if lib.Exists("nope.bin") {
		t.Error("Exists on absent file")
	}
	_ = lib.Write("a/b.bin", []byte("x"))
	if !lib.Exists("a/b.bin") {
		t.Error("Exists false for present file")
	}
	if lib.Exists("a") {
		t.Error("Exists true for a directory")
	}
}

func TestCopyPreservesBytes(t *testing.T) {
	lib := tempLibrary(t)
	content := []byte("patched rom")
	_ = lib.Write("Kaizo/03-Skilled/foo.bin", content)

	if err := lib.Copy("Kaizo/03-Skilled/foo.bin", "Puzzle/03-Skilled/foo.bin"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := lib.Read("Puzzle/03-Skilled/foo.bin")
	if err != nil {
		t.Fatalf("Read copy: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("copy differs from source")
	}
}

func TestDelete(t *testing.T) {
	lib := tempLibrary(t)
	_ = lib.Write("del.bin", []byte("bye"))
	if err := lib.Delete("del.bin"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if lib.Exists("del.bin") {
		t.Error("file still present")
	}
}

func TestList(t *testing.T) {
	lib := tempLibrary(t)
	_ = lib.Write("Kaizo/03-Skilled/a.bin", []byte("a"))
	_ = lib.Write("Puzzle/02-Casual/b.bin", []byte("b"))

	all, err := lib.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len = %d, want 2", len(all))
	}

	sub, err := lib.List("Kaizo")
	if err != nil {
		t.Fatalf("List subdir: %v", err)
	}
	if len(sub) != 1 {
		t.Errorf("len = %d, want 1", len(sub))
	}
}

func TestTraversalBlocked(t *testing.T) {
	lib := tempLibrary(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.bin",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := lib.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := lib.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestRelRoundTrip(t *testing.T) {
	lib := tempLibrary(t)
	abs, err := lib.Abs("Kaizo/foo.bin")
	if err != nil {
		t.Fatal(err)
	}
	rel, err := lib.Rel(abs)
	if err != nil {
		t.Fatal(err)
	}
	if rel != filepath.Join("Kaizo", "foo.bin") {
		t.Errorf("Rel = %q", rel)
	}
	if _, err := lib.Rel("/somewhere/else"); err == nil {
		t.Error("Rel accepted a path outside the root")
	}
}
