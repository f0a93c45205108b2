package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sunriver-travel/nilecms/internal/storage"
)

func newTestDisk(t *testing.T) (*storage.Disk, string) {
	root := t.TempDir()
	disk, err := storage.NewDisk(root, "/uploads")
	if err != nil {
		t.Fatalf("Failed to create disk provider: %v", err)
	}
	return disk, root
}

func TestSaveAndDelete(t *testing.T) {
	disk, root := newTestDisk(t)

	sf, err := disk.Save("packages", "hero.jpg", []byte("image-bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(sf.URL, "/uploads/packages/") {
		t.Errorf("Expected public URL under /uploads/packages/, got %q", sf.URL)
	}
	if !strings.HasSuffix(sf.Path, "-hero.jpg") {
		t.Errorf("Expected sanitized name suffix, got %q", sf.Path)
	}

	content, err := os.ReadFile(filepath.Join(root, sf.Path))
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if string(content) != "image-bytes" {
		t.Errorf("Unexpected content: %q", content)
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(filepath.Join(root, "packages"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".upload-tmp-") {
			t.Errorf("Leftover temp file: %s", e.Name())
		}
	}

	if err := disk.Delete(sf.Path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, sf.Path)); !os.IsNotExist(err) {
		t.Error("Expected file removed")
	}
}

func TestDeleteByURL(t *testing.T) {
	disk, root := newTestDisk(t)

	sf, err := disk.Save("packages", "brochure.pdf", []byte("pdf"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := disk.Delete(sf.URL); err != nil {
		t.Fatalf("Delete by URL failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, sf.Path)); !os.IsNotExist(err) {
		t.Error("Expected file removed")
	}
}

func TestSaveSanitizesFilename(t *testing.T) {
	disk, root := newTestDisk(t)

	sf, err := disk.Save("packages", "../../../etc/pass wd?.jpg", []byte("x"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	abs := filepath.Join(root, sf.Path)
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		t.Errorf("Stored file escaped the root: %q", sf.Path)
	}
	if strings.ContainsAny(filepath.Base(sf.Path), "/?* ") {
		t.Errorf("Expected sanitized name, got %q", sf.Path)
	}
}

func TestDeleteRejectsTraversal(t *testing.T) {
	disk, _ := newTestDisk(t)

	for _, loc := range []string{"../outside.txt", "/etc/passwd", "a/../../b"} {
		if err := disk.Delete(loc); err == nil {
			t.Errorf("Expected traversal rejection for %q", loc)
		}
	}
}

func TestDeleteMissingFile(t *testing.T) {
	disk, _ := newTestDisk(t)
	if err := disk.Delete("packages/never-there.jpg"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
