package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempDir(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempDir(t)
	content := []byte("plan\n    ☐ book flights\n")
	if err := s.Write("trip.txt", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("trip.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempDir(t)
	if err := s.Write("a/b/c.yaml", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.yaml")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("del.txt", []byte("bye"))
	if err := s.Delete("del.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.txt"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestMove(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("old.txt", []byte("data"))
	if err := s.Move("old.txt", "processed/old.txt"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("processed/old.txt")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if _, err := s.Read("old.txt"); err == nil {
		t.Error("old path should not exist")
	}
}

func TestMoveKeepsExistingTarget(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("processed/n.txt", []byte("first"))
	_ = s.Write("n.txt", []byte("second"))
	if err := s.Move("n.txt", "processed/n.txt"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	first, _ := s.Read("processed/n.txt")
	if string(first) != "first" {
		t.Errorf("existing file overwritten: %q", first)
	}
	second, err := s.Read("processed/n-1.txt")
	if err != nil {
		t.Fatalf("Read suffixed: %v", err)
	}
	if string(second) != "second" {
		t.Errorf("moved content = %q", second)
	}
}

func TestList(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("b.md", []byte("b"))
	_ = s.Write("a.txt", []byte("a"))
	_ = s.Write("c.yaml", []byte("c"))
	_ = s.Write("skip.json", []byte("{}"))
	_ = s.Write(".hidden.txt", []byte("h"))
	_ = s.Write("processed/old.txt", []byte("old"))

	items, err := s.List("", ".txt", ".md", ".yaml")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	if items[0].Path != "a.txt" || items[1].Path != "b.md" || items[2].Path != "c.yaml" {
		t.Errorf("order = %s %s %s", items[0].Path, items[1].Path, items[2].Path)
	}
	if items[0].Checksum == "" {
		t.Error("checksum not set")
	}

	all, err := s.List("")
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("len(all) = %d, want 4", len(all))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDir(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.txt",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("atomic.txt", []byte("original"))
	if err := s.Write("atomic.txt", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.txt")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".arbor-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if info, err := os.Stat(s.Root()); err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "arbor-test-*")
	if err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
