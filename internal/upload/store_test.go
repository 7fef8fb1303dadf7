package upload

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestStore_Save(t *testing.T) {
	store := newTestStore(t)

	stored, err := store.Save("photo.jpg", "image/jpeg", 4, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasPrefix(stored.URL, "/uploads/") {
		t.Errorf("URL = %q, want /uploads/ prefix", stored.URL)
	}
	if !strings.HasSuffix(stored.Pathname, "-photo.jpg") {
		t.Errorf("Pathname = %q, want timestamp-prefixed original name", stored.Pathname)
	}

	path, err := store.Path(stored.Pathname)
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "data" {
		t.Errorf("stored content = %q", content)
	}
}

func TestStore_SaveRejectsOversize(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save("big.png", "image/png", MaxFileSize+1, strings.NewReader("x")); err != ErrFileTooLarge {
		t.Errorf("Save() error = %v, want ErrFileTooLarge", err)
	}

	// A lying declared size still gets caught by the copy cap
	payload := bytes.Repeat([]byte("a"), MaxFileSize+1)
	if _, err := store.Save("big.png", "image/png", 10, bytes.NewReader(payload)); err != ErrFileTooLarge {
		t.Errorf("Save() error = %v, want ErrFileTooLarge", err)
	}
}

func TestStore_SaveRejectsUnsupportedType(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save("notes.txt", "text/plain", 4, strings.NewReader("data")); err != ErrUnsupportedType {
		t.Errorf("Save() error = %v, want ErrUnsupportedType", err)
	}
}

func TestStore_SaveSanitizesFilename(t *testing.T) {
	store := newTestStore(t)

	stored, err := store.Save("../../etc/passwd.png", "image/png", 4, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if strings.Contains(stored.Pathname, "..") || strings.Contains(stored.Pathname, "/") {
		t.Errorf("Pathname = %q, traversal characters should be stripped", stored.Pathname)
	}
}

func TestStore_PathRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"", "../secret", "a/b", `a\b`, ".."} {
		if _, err := store.Path(name); err == nil {
			t.Errorf("Path(%q) should fail", name)
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := ContentTypeFor("x.png"); got != "image/png" {
		t.Errorf("ContentTypeFor(x.png) = %q", got)
	}
	if got := ContentTypeFor("x.bin"); got != "application/octet-stream" {
		t.Errorf("ContentTypeFor(x.bin) = %q", got)
	}
}
