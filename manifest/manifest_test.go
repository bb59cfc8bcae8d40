package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "ivm.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "euclid"
version = "0.1.0"

[program]
entry = "euclid.ivm"

[vm]
max-stack = 512
max-call-depth = 64
max-store = 4096
trace = true

[cache]
path = "build/cache.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Project.Name != "euclid" {
		t.Errorf("project name = %q, want euclid", m.Project.Name)
	}
	if m.Program.Entry != "euclid.ivm" {
		t.Errorf("entry = %q, want euclid.ivm", m.Program.Entry)
	}
	if m.VM.MaxStack != 512 || m.VM.MaxCallDepth != 64 || m.VM.MaxStore != 4096 {
		t.Errorf("vm limits = %+v, want 512/64/4096", m.VM)
	}
	if !m.VM.Trace {
		t.Error("trace = false, want true")
	}
	if m.Dir == "" || !filepath.IsAbs(m.Dir) {
		t.Errorf("dir = %q, want absolute path", m.Dir)
	}

	if got, want := m.EntryPath(), filepath.Join(m.Dir, "euclid.ivm"); got != want {
		t.Errorf("EntryPath() = %q, want %q", got, want)
	}
	if got, want := m.CachePath(), filepath.Join(m.Dir, "build", "cache.db"); got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
}

func TestLoadMissingManifest(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load succeeded in an empty directory")
	}
}

func TestLoadMalformedManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project\nname =")
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted malformed TOML")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"above\"\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad found nothing")
	}
	if m.Project.Name != "above" {
		t.Errorf("project name = %q, want above", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Errorf("FindAndLoad = %+v, want nil", m)
	}
}

func TestCachePathDefault(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project]\nname = \"p\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, want := m.CachePath(), filepath.Join(m.Dir, ".ivm", "cache.db"); got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
	if m.EntryPath() != "" {
		t.Errorf("EntryPath() = %q, want empty", m.EntryPath())
	}
}
