// Package store keeps a history of profiling sessions on disk and compares
// them.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"emperror.dev/errors"
	"github.com/goccy/go-json"

	"github.com/danpilch/stackprof/pkg/session"
)

const ext = ".json"

// DefaultDir returns the default session storage directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stackprof/sessions"
	}
	return filepath.Join(home, ".stackprof", "sessions")
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.Errorf("invalid session name %q", name)
	}
	return nil
}

// Save writes a session to <dir>/<name>.json.
func Save(s *session.Session, name, dir string) error {
	if err := validName(name); err != nil {
		return err
	}
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapIf(err, "cannot create session directory")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.WrapIf(err, "cannot marshal session")
	}

	path := filepath.Join(dir, name+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapIf(err, "cannot write session")
	}
	return nil
}

// Load reads a session saved under name.
func Load(name, dir string) (*session.Session, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = DefaultDir()
	}
	data, err := os.ReadFile(filepath.Join(dir, name+ext))
	if err != nil {
		return nil, errors.WrapIff(err, "cannot read session %q", name)
	}
	return session.Decode(data)
}

// List returns all saved session names, sorted.
func List(dir string) ([]string, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ext {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	sort.Strings(names)
	return names, nil
}
