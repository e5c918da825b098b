package review

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestMoveMirrorsRelativeStructure(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "images", "subfolder", "art3.png")
	writeFile(t, src, "png")

	mover, err := NewMover(filepath.Join(base, "Review"))
	if err != nil {
		t.Fatalf("NewMover returned error: %v", err)
	}

	target, err := mover.Move(src, filepath.Join("subfolder", "art3.png"))
	if err != nil {
		t.Fatalf("Move returned error: %v", err)
	}
	want := filepath.Join(base, "Review", "subfolder", "art3.png")
	if target != want {
		t.Fatalf("expected target %q, got %q", want, target)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source to be moved, stat err: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "png" {
		t.Fatalf("expected review copy contents, got %q err %v", data, err)
	}
}

func TestMoveCollisionFailsAndLeavesSource(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "art1.png")
	writeFile(t, src, "new")
	writeFile(t, filepath.Join(base, "Review", "art1.png"), "old")

	mover, err := NewMover(filepath.Join(base, "Review"))
	if err != nil {
		t.Fatalf("NewMover returned error: %v", err)
	}

	if _, err := mover.Move(src, "art1.png"); err == nil {
		t.Fatal("expected collision error")
	}

	if _, err := os.Stat(src); err != nil {
		t.Fatalf("expected source to remain in place: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(base, "Review", "art1.png"))
	if err != nil || string(data) != "old" {
		t.Fatalf("expected prior review artifact untouched, got %q err %v", data, err)
	}
}

func TestMoveRejectsAbsoluteRel(t *testing.T) {
	mover, err := NewMover(t.TempDir())
	if err != nil {
		t.Fatalf("NewMover returned error: %v", err)
	}
	if _, err := mover.Move("/tmp/x.png", "/abs/path.png"); err == nil {
		t.Fatal("expected error for absolute relative path")
	}
}

func TestNewMoverRequiresDir(t *testing.T) {
	if _, err := NewMover(""); err == nil {
		t.Fatal("expected error for empty review dir")
	}
}
