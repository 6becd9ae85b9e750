// Package project locates model files: it resolves include targets against
// search directories and reads the optional shackle.toml manifest that
// configures them.
package project

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the per-project configuration file.
const ManifestName = "shackle.toml"

// Manifest configures a model project.
type Manifest struct {
	Model    ModelSection   `toml:"model"`
	Includes IncludeSection `toml:"includes"`
	Check    CheckSection   `toml:"check"`
}

// ModelSection names the project and its entry model.
type ModelSection struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"`
}

// IncludeSection lists extra include search directories, relative to the
// manifest's directory.
type IncludeSection struct {
	Dirs []string `toml:"dirs"`
}

// CheckSection tunes diagnostics.
type CheckSection struct {
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// FindManifest walks from dir upward looking for shackle.toml. It returns
// the manifest path, or "" when no manifest exists.
func FindManifest(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ManifestName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadManifest reads and decodes a manifest file. Include directories are
// made absolute relative to the manifest location.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	for i, d := range m.Includes.Dirs {
		if !filepath.IsAbs(d) {
			m.Includes.Dirs[i] = filepath.Join(base, d)
		}
	}
	if m.Model.Entry != "" && !filepath.IsAbs(m.Model.Entry) {
		m.Model.Entry = filepath.Join(base, m.Model.Entry)
	}
	return &m, nil
}

// ErrIncludeNotFound reports an include target missing from every search
// location.
var ErrIncludeNotFound = errors.New("include target not found")

// Locator resolves an include target named by a model file.
type Locator interface {
	// Resolve maps an include target to an absolute file path. fromDir is
	// the directory of the including file.
	Resolve(fromDir, target string) (string, error)
}

// DirLocator resolves includes against the including file's directory
// first, then a fixed list of search directories in order.
type DirLocator struct {
	Dirs []string
}

func NewDirLocator(dirs ...string) *DirLocator {
	return &DirLocator{Dirs: dirs}
}

func (l *DirLocator) Resolve(fromDir, target string) (string, error) {
	if filepath.IsAbs(target) {
		if fileExists(target) {
			return filepath.Clean(target), nil
		}
		return "", ErrIncludeNotFound
	}
	search := make([]string, 0, len(l.Dirs)+1)
	if fromDir != "" {
		search = append(search, fromDir)
	}
	search = append(search, l.Dirs...)
	for _, dir := range search {
		p := filepath.Join(dir, target)
		if fileExists(p) {
			return filepath.Clean(p), nil
		}
	}
	return "", ErrIncludeNotFound
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// MapLocator resolves includes from an in-memory table; tests and virtual
// workspaces use it.
type MapLocator map[string]string

func (l MapLocator) Resolve(fromDir, target string) (string, error) {
	if p, ok := l[target]; ok {
		return p, nil
	}
	return "", ErrIncludeNotFound
}
