// manager_test.go - Tests for the manual store
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "manuals")

		if _, err := NewLocalStore(uploadDir); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
	})

	t.Run("indexes existing manuals", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "civic.pdf"), []byte("%PDF-1.4"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "leftover.part"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		store, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		list, _ := store.List()
		if len(list) != 1 || list[0].Name != "civic.pdf" {
			t.Errorf("Expected only civic.pdf, got %v", list)
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves under its name", func(t *testing.T) {
		store := createTestStore(t)
		content := "%PDF-1.4 owner manual"

		info, err := store.Save("manual.pdf", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		if info.Name != "manual.pdf" {
			t.Errorf("Expected name 'manual.pdf', got %v", info.Name)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}

		data, err := os.ReadFile(filepath.Join(store.uploadDir, "manual.pdf"))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content '%s', got '%s'", content, string(data))
		}
	})

	t.Run("strips directories from the name", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("../../etc/manual.pdf", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		if info.Name != "manual.pdf" {
			t.Errorf("Expected name 'manual.pdf', got %v", info.Name)
		}
	})

	t.Run("replaces a manual with the same name", func(t *testing.T) {
		store := createTestStore(t)
		store.Save("manual.pdf", strings.NewReader("old"))
		store.Save("manual.pdf", strings.NewReader("newer"))

		list, _ := store.List()
		if len(list) != 1 {
			t.Fatalf("Expected 1 manual, got %d", len(list))
		}
		if list[0].Size != 5 {
			t.Errorf("Expected size 5, got %d", list[0].Size)
		}
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		store := createTestStore(t)
		for _, name := range []string{"", "  ", "..", "x.part"} {
			if _, err := store.Save(name, strings.NewReader("x")); err == nil {
				t.Errorf("Expected error for name %q", name)
			}
		}
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		store := createTestStore(t)
		store.Save("manual.pdf", strings.NewReader("content"))

		entries, _ := os.ReadDir(store.uploadDir)
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".part") {
				t.Errorf("Unexpected temp file %s", e.Name())
			}
		}
	})
}

func TestLocalStore_Get(t *testing.T) {
	store := createTestStore(t)
	store.Save("manual.pdf", strings.NewReader("content"))

	info, err := store.Get("manual.pdf")
	if err != nil {
		t.Fatalf("Failed to get file: %v", err)
	}
	if info.Name != "manual.pdf" {
		t.Errorf("Expected name manual.pdf, got %s", info.Name)
	}

	_, err = store.Get("missing.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_List(t *testing.T) {
	store := createTestStore(t)
	for _, name := range []string{"corolla.pdf", "accord.pdf", "beetle.pdf"} {
		if _, err := store.Save(name, strings.NewReader("content")); err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("Failed to list files: %v", err)
	}
	want := []string{"accord.pdf", "beetle.pdf", "corolla.pdf"}
	if len(files) != len(want) {
		t.Fatalf("Expected %d files, got %d", len(want), len(files))
	}
	for i, f := range files {
		if f.Name != want[i] {
			t.Errorf("Expected %s at %d, got %s", want[i], i, f.Name)
		}
	}
}

func TestLocalStore_Delete(t *testing.T) {
	t.Run("deletes existing manual", func(t *testing.T) {
		store := createTestStore(t)
		store.Save("manual.pdf", strings.NewReader("content"))

		if err := store.Delete("manual.pdf"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if _, err := os.Stat(filepath.Join(store.uploadDir, "manual.pdf")); !os.IsNotExist(err) {
			t.Error("Expected file to be removed from disk")
		}
		if _, err := store.GetFilePath("manual.pdf"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("returns not found", func(t *testing.T) {
		store := createTestStore(t)
		if err := store.Delete("missing.pdf"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
