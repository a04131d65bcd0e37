package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"magiceraser/internal/domain"
)

func TestFileStoreWriteRead(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	key, err := store.Write(ctx, "./results/s1/a1.png", []byte("png"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "results/s1/a1.png" {
		t.Fatalf("key = %q", key)
	}
	data, err := store.Read(ctx, key)
	if err != nil || string(data) != "png" {
		t.Fatalf("Read: %q %v", data, err)
	}
	if _, err := store.Read(ctx, "results/s1/missing.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing key: %v", err)
	}

	if _, err := store.Write(ctx, key, []byte("png2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if data, _ := store.Read(ctx, key); string(data) != "png2" {
		t.Fatalf("after overwrite: %q", data)
	}
	entries, err := os.ReadDir(filepath.Join(root, "results", "s1"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("leftover files: %v %v", entries, err)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"results/a.png", "results/a.png", true},
		{"/results//a.png", "results/a.png", true},
		{`results\a.png`, "results/a.png", true},
		{"../etc/passwd", "", false},
		{"results/../../x", "", false},
		{" ", "", false},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("sanitizeKey(%q) = %q, %v", tc.in, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want ErrInvalidKey", tc.in, got, err)
		}
	}
}

func TestResultKey(t *testing.T) {
	if got := ResultKey("s", "a", "image/jpeg"); got != "results/s/a.jpg" {
		t.Fatalf("got %q", got)
	}
	if got := ResultKey("s", "a", ""); got != "results/s/a.png" {
		t.Fatalf("got %q", got)
	}
}
