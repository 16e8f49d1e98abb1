// Package prefs is the client-local preference store: display name and
// color scheme, loaded and saved explicitly instead of living in ambient
// global state.
package prefs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
)

// DefaultColorScheme is used when nothing is saved or the saved value is
// unknown.
const DefaultColorScheme = "purple"

var knownColorSchemes = map[string]bool{
	"purple": true,
	"blue":   true,
	"green":  true,
	"orange": true,
	"rose":   true,
}

// ValidColorScheme reports whether the scheme is one the dashboard renders.
func ValidColorScheme(scheme string) bool {
	return knownColorSchemes[scheme]
}

// Preferences holds the local-only presentation settings.
type Preferences struct {
	Name        string `json:"userName"`
	ColorScheme string `json:"colorScheme"`
}

// Store reads and writes preferences at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("prefs: path is required")
	}
	return &Store{path: path}, nil
}

// DefaultPath returns the per-user preference file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "focusdash", "prefs.json"), nil
}

// Load reads the saved preferences. A missing file yields defaults; an
// unknown color scheme is replaced by the default so a stale file cannot
// break rendering.
func (s *Store) Load() (Preferences, error) {
	p := Preferences{ColorScheme: DefaultColorScheme}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, err
	}
	if err := sonic.Unmarshal(data, &p); err != nil {
		return Preferences{ColorScheme: DefaultColorScheme}, err
	}
	if !ValidColorScheme(p.ColorScheme) {
		p.ColorScheme = DefaultColorScheme
	}
	return p, nil
}

// Save writes the preferences atomically: temp file in the same directory,
// fsync, then rename over the destination.
func (s *Store) Save(p Preferences) error {
	if !ValidColorScheme(p.ColorScheme) {
		p.ColorScheme = DefaultColorScheme
	}
	data, err := sonic.Marshal(p)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "prefs-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
