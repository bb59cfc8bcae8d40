// Package manifest handles ivm.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents an ivm.toml project configuration.
type Manifest struct {
	Project Project   `toml:"project"`
	Program ProgramCf `toml:"program"`
	VM      VMConfig  `toml:"vm"`
	Cache   Cache     `toml:"cache"`

	// Dir is the directory containing the ivm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// ProgramCf configures the default program the CLI operates on.
type ProgramCf struct {
	// Entry is the listing or object file run when none is given.
	Entry string `toml:"entry"`
}

// VMConfig carries machine limits and the trace flag.
type VMConfig struct {
	MaxStack     int  `toml:"max-stack"`
	MaxCallDepth int  `toml:"max-call-depth"`
	MaxStore     int  `toml:"max-store"`
	Trace        bool `toml:"trace"`
}

// Cache configures the compiled-program cache.
type Cache struct {
	Path string `toml:"path"`
}

// Load parses an ivm.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "ivm.toml")
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

	return &m, nil
}

// FindAndLoad walks up from startDir to find an ivm.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "ivm.toml")
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

// EntryPath returns the absolute path of the configured entry program,
// or "" when none is configured.
func (m *Manifest) EntryPath() string {
	if m.Program.Entry == "" {
		return ""
	}
	if filepath.IsAbs(m.Program.Entry) {
		return m.Program.Entry
	}
	return filepath.Join(m.Dir, m.Program.Entry)
}

// CachePath returns the absolute path of the program cache database,
// defaulting to .ivm/cache.db next to the manifest.
func (m *Manifest) CachePath() string {
	p := m.Cache.Path
	if p == "" {
		p = filepath.Join(".ivm", "cache.db")
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
