package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadRejectsTraversalOutsideRoot(t *testing.T) {
	if _, ok := Read("/tmp", "/tmp/../../../etc/passwd"); ok {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, ok := Read("/tmp", "/etc/passwd"); ok {
		t.Fatalf("expected absolute path outside root to be rejected")
	}

	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "outside-secret")
	if err := os.WriteFile(outside, []byte("secret"), 0o600); err != nil {
		t.Fatalf("write outside file: %v", err)
	}
	t.Cleanup(func() { os.Remove(outside) })

	if _, ok := Read(root, filepath.Join(root, "..", "outside-secret")); ok {
		t.Fatalf("expected sibling file to be rejected")
	}
	if _, ok := Read(root, root+"-sibling/file"); ok {
		t.Fatalf("expected prefix-sharing sibling to be rejected")
	}

	_, err := readEntry(root, outside)
	var cacheErr *CacheError
	if !errors.As(err, &cacheErr) || cacheErr.Kind != KindOutsideRoot {
		t.Fatalf("expected outside_root error, got %v", err)
	}
	if !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("expected ErrOutsideRoot, got %v", err)
	}
}

func TestReadReturnsWrittenBytes(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "test-cache-file-12345.txt")
	if err := os.WriteFile(file, []byte("test content"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	data, ok := Read(root, file)
	if !ok {
		t.Fatalf("expected read hit")
	}
	if string(data) != "test content" {
		t.Fatalf("unexpected content %q", data)
	}

	data, ok = Read(root, filepath.Join(root, ".", "nested", "..", "test-cache-file-12345.txt"))
	if !ok || string(data) != "test content" {
		t.Fatalf("expected normalized path inside root to be readable")
	}
}

func TestReadMissesForMissingFilesAndDirectories(t *testing.T) {
	root := t.TempDir()
	if _, ok := Read(root, filepath.Join(root, "non-existent-file-xyz.txt")); ok {
		t.Fatalf("expected miss for nonexistent file")
	}
	_, err := readEntry(root, filepath.Join(root, "non-existent-file-xyz.txt"))
	var cacheErr *CacheError
	if !errors.As(err, &cacheErr) || cacheErr.Kind != KindNotFound {
		t.Fatalf("expected not_found error, got %v", err)
	}

	if _, ok := Read(root, root); ok {
		t.Fatalf("expected miss when reading the root directory itself")
	}
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, ok := Read(root, sub); ok {
		t.Fatalf("expected miss for directory")
	}
}

func TestWithinRootComparesCaseInsensitively(t *testing.T) {
	cases := []struct {
		root, target string
		want         bool
	}{
		{"/tmp", "/tmp", true},
		{"/tmp", "/tmp/page", true},
		{"/tmp", "/tmp/a/b", true},
		{"/tmp", "/TMP/page", true},
		{"/tmp", "/tmpfoo/page", false},
		{"/tmp", "/etc/passwd", false},
		{"/", "/etc/passwd", true},
	}
	for _, tc := range cases {
		if got := withinRoot(tc.root, tc.target); got != tc.want {
			t.Fatalf("withinRoot(%q, %q) = %v, want %v", tc.root, tc.target, got, tc.want)
		}
	}
}
