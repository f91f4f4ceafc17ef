package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andrew-pa/dirorch/internal/config"
)

func TestEnsureDirsCreatesStatesAndFailed(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	phases := []config.Phase{
		{Name: "gather", States: []string{"new", "done"}},
		{Name: "review", States: []string{"pending", "approved"}},
	}
	if err := s.EnsureDirs(phases); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, dir := range []string{
		filepath.Join(root, "gather", "new"),
		filepath.Join(root, "gather", "done"),
		filepath.Join(root, "gather", FailedState),
		filepath.Join(root, "review", "pending"),
		filepath.Join(root, "review", "approved"),
		filepath.Join(root, "review", FailedState),
	} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist: %v", dir, err)
		}
	}
}

func TestEnsureDirsIdempotent(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	phases := []config.Phase{{Name: "gather", States: []string{"new"}}}
	if err := s.EnsureDirs(phases); err != nil {
		t.Fatalf("EnsureDirs first call: %v", err)
	}
	if err := s.EnsureDirs(phases); err != nil {
		t.Fatalf("EnsureDirs second call: %v", err)
	}
}

func TestListEntitiesSortedExcludesHiddenAndDirs(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	dir := s.StateDir("gather", "new")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, name := range []string{"b.txt", "a.txt", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatalf("MkdirAll subdir: %v", err)
	}

	names, err := s.ListEntities("gather", "new")
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Fatalf("unexpected listing: %v", names)
	}
}

func TestListEntitiesMissingDir(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.ListEntities("gather", "new"); err == nil {
		t.Fatal("expected error listing nonexistent directory")
	}
}

func TestMoveSucceeds(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	phases := []config.Phase{{Name: "gather", States: []string{"new", "done"}}}
	if err := s.EnsureDirs(phases); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	path := s.EntityPath("gather", "new", "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := s.Move("gather", "new", "done", "a.txt"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected source gone, got err=%v", err)
	}
	if _, err := os.Stat(s.EntityPath("gather", "done", "a.txt")); err != nil {
		t.Fatalf("expected destination to exist: %v", err)
	}
}

func TestMoveFailsIfDestinationExists(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	phases := []config.Phase{{Name: "gather", States: []string{"new", "done"}}}
	if err := s.EnsureDirs(phases); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	if err := os.WriteFile(s.EntityPath("gather", "new", "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile new: %v", err)
	}
	if err := os.WriteFile(s.EntityPath("gather", "done", "a.txt"), []byte("y"), 0o644); err != nil {
		t.Fatalf("WriteFile done: %v", err)
	}
	if err := s.Move("gather", "new", "done", "a.txt"); err == nil {
		t.Fatal("expected error when destination already exists")
	}
}

func TestMoveToFailedQuarantine(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	phases := []config.Phase{{Name: "gather", States: []string{"new"}}}
	if err := s.EnsureDirs(phases); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	if err := os.WriteFile(s.EntityPath("gather", "new", "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := s.Move("gather", "new", FailedState, "a.txt"); err != nil {
		t.Fatalf("Move to failed: %v", err)
	}
	if _, err := os.Stat(s.EntityPath("gather", FailedState, "a.txt")); err != nil {
		t.Fatalf("expected entity in _failed: %v", err)
	}
}
