// Package testutil builds temporary vaults for integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestVault is a temporary vault built from declared files.
type TestVault struct {
	Path   string
	t      *testing.T
	schema string
	files  map[string]string
}

// NewTestVault creates a vault builder. Call Build to materialize it.
func NewTestVault(t *testing.T) *TestVault {
	t.Helper()
	return &TestVault{
		t:     t,
		files: make(map[string]string),
	}
}

// WithSchema sets the schema.yaml content.
func (v *TestVault) WithSchema(yaml string) *TestVault {
	v.schema = yaml
	return v
}

// WithFile adds a file, path relative to the vault root.
func (v *TestVault) WithFile(path, content string) *TestVault {
	v.files[path] = content
	return v
}

// Build creates the vault directory and every configured file.
func (v *TestVault) Build() *TestVault {
	v.t.Helper()
	v.Path = v.t.TempDir()

	if v.schema != "" {
		v.writeFile("schema.yaml", v.schema)
	}
	for path, content := range v.files {
		v.writeFile(path, content)
	}
	return v
}

func (v *TestVault) writeFile(relPath, content string) {
	v.t.Helper()
	full := filepath.Join(v.Path, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		v.t.Fatalf("mkdir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		v.t.Fatalf("write %s: %v", relPath, err)
	}
}

// ReadFile returns a vault file's content.
func (v *TestVault) ReadFile(relPath string) string {
	v.t.Helper()
	data, err := os.ReadFile(filepath.Join(v.Path, filepath.FromSlash(relPath)))
	if err != nil {
		v.t.Fatalf("read %s: %v", relPath, err)
	}
	return string(data)
}

// WriteFile replaces a vault file's content after Build.
func (v *TestVault) WriteFile(relPath, content string) {
	v.t.Helper()
	v.writeFile(relPath, content)
}
