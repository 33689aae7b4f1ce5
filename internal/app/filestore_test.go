package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_ImportListContent(t *testing.T) {
	store := NewFileStore(t.TempDir())

	src := filepath.Join(t.TempDir(), "loops-01.md")
	if err := os.WriteFile(src, []byte("---\ntitle: Loops\n---\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := store.Import(src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if file.Name != "loops-01.md" {
		t.Fatalf("Name = %q", file.Name)
	}
	if file.Size == 0 || file.Content == "" {
		t.Fatalf("imported file missing size or content: %+v", file)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("List len = %d, want 1", len(files))
	}

	data, err := store.Content(0)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if string(data) != "---\ntitle: Loops\n---\n" {
		t.Fatalf("Content = %q", string(data))
	}
}

func TestFileStore_SelectedPointerPersists(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)

	src := filepath.Join(t.TempDir(), "a.md")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Import(src); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if got, _ := store.Selected(); got != -1 {
		t.Fatalf("Selected before any Select = %d, want -1", got)
	}
	if err := store.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}

	// A fresh store over the same root sees the pointer.
	again := NewFileStore(root)
	got, err := again.Selected()
	if err != nil {
		t.Fatalf("Selected: %v", err)
	}
	if got != 0 {
		t.Fatalf("Selected = %d, want 0", got)
	}
}

func TestFileStore_SelectOutOfRange(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if err := store.Select(0); err == nil {
		t.Fatalf("Select on empty store = nil error")
	}
}

func TestFileStore_EmptyStoreLists(t *testing.T) {
	store := NewFileStore(t.TempDir())
	files, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if files != nil {
		t.Fatalf("List on empty store = %v, want nil", files)
	}
}
