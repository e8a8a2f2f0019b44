package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFileFixture writes data to dir/name, creating dir as needed, and
// returns the full path
func WriteFileFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
	return path
}

// WriteNovelFixture writes a serialized novel as dir/novel_save.json
func WriteNovelFixture(t *testing.T, dir string, data []byte) string {
	t.Helper()
	return WriteFileFixture(t, dir, "novel_save.json", data)
}

// SetModTime sets both access and modification time of path
func SetModTime(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("Failed to set mtime on %s: %v", path, err)
	}
}

// SQLitePath returns a database path inside a fresh temp dir
func SQLitePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(CreateTempDir(t), "remote.db")
}
