package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with a quorlin.toml
	dir := t.TempDir()
	tomlContent := `
[project]
name = "counter"
version = "0.1.0"

[build]
input = "counter.qir"
targets = ["yul", "qvm"]
output = "artifacts"

[store]
path = "state.db"
`
	if err := os.WriteFile(filepath.Join(dir, "quorlin.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "counter" {
		t.Errorf("project name = %q, want counter", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if m.Build.Input != "counter.qir" {
		t.Errorf("build input = %q, want counter.qir", m.Build.Input)
	}
	if len(m.Build.Targets) != 2 || m.Build.Targets[0] != "yul" || m.Build.Targets[1] != "qvm" {
		t.Errorf("build targets = %v, want [yul qvm]", m.Build.Targets)
	}
	if m.Build.Output != "artifacts" {
		t.Errorf("build output = %q, want artifacts", m.Build.Output)
	}
	if m.Store.Path != "state.db" {
		t.Errorf("store path = %q, want state.db", m.Store.Path)
	}
	if m.StorePath() != filepath.Join(m.Dir, "state.db") {
		t.Errorf("StorePath = %q", m.StorePath())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "minimal"
`
	if err := os.WriteFile(filepath.Join(dir, "quorlin.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Build.Input != "module.qir" {
		t.Errorf("default input = %q, want module.qir", m.Build.Input)
	}
	if len(m.Build.Targets) != 1 || m.Build.Targets[0] != "qvm" {
		t.Errorf("default targets = %v, want [qvm]", m.Build.Targets)
	}
	if m.Build.Output != "out" {
		t.Errorf("default output = %q, want out", m.Build.Output)
	}
	if m.StorePath() != "" {
		t.Errorf("default store path = %q, want empty", m.StorePath())
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	tomlContent := `
[project]
name = "walkup"
`
	if err := os.WriteFile(filepath.Join(root, "quorlin.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil manifest")
	}
	if m.Project.Name != "walkup" {
		t.Errorf("project name = %q, want walkup", m.Project.Name)
	}
}

func TestFindAndLoadMissing(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Errorf("FindAndLoad = %+v, want nil for missing manifest", m)
	}
}
