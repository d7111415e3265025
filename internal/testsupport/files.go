package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and its parent directories) holding size bytes.
// The content repeats the file's base name so two fixtures of equal size
// still differ byte-wise, which keeps copy verification honest. A size <= 0
// writes a single byte. Calling it again on the same path truncates, which
// is how tests simulate a download that is still growing.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	seed := []byte(filepath.Base(path))
	if len(seed) == 0 {
		seed = []byte{0x42}
	}
	content := bytes.Repeat(seed, int(size)/len(seed)+1)[:size]
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
