package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates a file with the given contents under dir, creating any
// intermediate directories.
func WriteFile(t testing.TB, dir, name string, contents []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteImage creates a fake image file whose bytes are the given payload.
// The pipeline only hashes bytes, so any payload stands in for pixel data.
func WriteImage(t testing.TB, dir, name string, payload string) string {
	t.Helper()
	return WriteFile(t, dir, name, []byte(payload))
}
