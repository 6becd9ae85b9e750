package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	text := `
[model]
name = "queens"
entry = "queens.mzn"

[includes]
dirs = ["lib", "/abs/share"]

[check]
max_diagnostics = 50
`
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Model.Name != "queens" {
		t.Errorf("name = %q", m.Model.Name)
	}
	if want := filepath.Join(dir, "queens.mzn"); m.Model.Entry != want {
		t.Errorf("entry = %q, want %q", m.Model.Entry, want)
	}
	if want := filepath.Join(dir, "lib"); m.Includes.Dirs[0] != want {
		t.Errorf("dirs[0] = %q, want %q", m.Includes.Dirs[0], want)
	}
	if m.Includes.Dirs[1] != "/abs/share" {
		t.Errorf("dirs[1] = %q", m.Includes.Dirs[1])
	}
	if m.Check.MaxDiagnostics != 50 {
		t.Errorf("max_diagnostics = %d", m.Check.MaxDiagnostics)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "models", "deep")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte("[model]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := FindManifest(sub); got != path {
		t.Fatalf("FindManifest = %q, want %q", got, path)
	}
}

func TestDirLocatorSearchOrder(t *testing.T) {
	local := t.TempDir()
	shared := t.TempDir()
	if err := os.WriteFile(filepath.Join(local, "a.mzn"), []byte("int: x;"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(shared, "a.mzn"), []byte("int: y;"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(shared, "b.mzn"), []byte("int: z;"), 0o644); err != nil {
		t.Fatal(err)
	}

	loc := NewDirLocator(shared)

	// the including file's directory wins
	got, err := loc.Resolve(local, "a.mzn")
	if err != nil || got != filepath.Join(local, "a.mzn") {
		t.Fatalf("Resolve a.mzn = %q, %v", got, err)
	}
	// fall back to search dirs
	got, err = loc.Resolve(local, "b.mzn")
	if err != nil || got != filepath.Join(shared, "b.mzn") {
		t.Fatalf("Resolve b.mzn = %q, %v", got, err)
	}
	if _, err := loc.Resolve(local, "missing.mzn"); err != ErrIncludeNotFound {
		t.Fatalf("missing include: err = %v", err)
	}
}
