package systemd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateWritesUnitFile(t *testing.T) {
	dir := t.TempDir()
	path, err := Generate(dir, "/usr/local/bin/nf-wgobfs")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if filepath.Base(path) != UnitName {
		t.Fatalf("path = %s, want basename %s", path, UnitName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "ExecStart=/usr/local/bin/nf-wgobfs --queue %i") {
		t.Fatalf("unexpected unit contents:\n%s", data)
	}
}
