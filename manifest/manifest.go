// Package manifest handles quorlin.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a quorlin.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Build   BuildConfig `toml:"build"`
	Store   StoreConfig `toml:"store"`

	// Dir is the directory containing the quorlin.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildConfig configures compilation input and outputs.
type BuildConfig struct {
	// Input is the CBOR-encoded IR module to compile.
	Input string `toml:"input"`
	// Targets lists the code generators to run.
	Targets []string `toml:"targets"`
	// Output is the directory artifacts are written into.
	Output string `toml:"output"`
}

// StoreConfig configures the persistent slot store used by the run command.
type StoreConfig struct {
	// Path is the SQLite database file. Empty means in-memory only.
	Path string `toml:"path"`
}

// Load parses a quorlin.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "quorlin.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Build.Input == "" {
		m.Build.Input = "module.qir"
	}
	if len(m.Build.Targets) == 0 {
		m.Build.Targets = []string{"qvm"}
	}
	if m.Build.Output == "" {
		m.Build.Output = "out"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a quorlin.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "quorlin.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// InputPath returns the absolute path of the IR input file.
func (m *Manifest) InputPath() string {
	return filepath.Join(m.Dir, m.Build.Input)
}

// OutputDir returns the absolute path of the artifact directory.
func (m *Manifest) OutputDir() string {
	return filepath.Join(m.Dir, m.Build.Output)
}

// StorePath returns the absolute path of the SQLite store, or "" when the
// project runs against an in-memory store.
func (m *Manifest) StorePath() string {
	if m.Store.Path == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Store.Path)
}
