package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return s
}

func TestNewStoreRequiresPath(t *testing.T) {
	if _, err := NewStore("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	s := newTestStore(t)
	p, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Name != "" {
		t.Fatalf("name = %q, want empty", p.Name)
	}
	if p.ColorScheme != DefaultColorScheme {
		t.Fatalf("scheme = %q, want %q", p.ColorScheme, DefaultColorScheme)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := Preferences{Name: "Ada", ColorScheme: "blue"}
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLoadReplacesUnknownScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	if err := os.WriteFile(path, []byte(`{"userName":"Ada","colorScheme":"neon"}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	p, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.ColorScheme != DefaultColorScheme {
		t.Fatalf("scheme = %q, want default for unknown value", p.ColorScheme)
	}
	if p.Name != "Ada" {
		t.Fatalf("name = %q, other fields must survive", p.Name)
	}
}

func TestSaveNormalizesUnknownScheme(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(Preferences{Name: "Ada", ColorScheme: "neon"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.ColorScheme != DefaultColorScheme {
		t.Fatalf("scheme = %q, want default", p.ColorScheme)
	}
}

func TestSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "prefs.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Save(Preferences{ColorScheme: "green"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(Preferences{ColorScheme: "rose"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "prefs.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
