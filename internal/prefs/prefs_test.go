package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func writePrefs(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if got := Load("").Theme; got != defaultTheme {
		t.Fatalf("Theme = %q, want %q", got, defaultTheme)
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writePrefs(t, filepath.Join(home, ".config", "bitdeck", "prefs.toml"), "theme = \"Slate\"\n")

	if got := Load("").Theme; got != "Slate" {
		t.Fatalf("Theme = %q, want %q", got, "Slate")
	}
}

func TestSave_RoundTripCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	if err := Save(path, Prefs{Theme: "Slate"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if got := Load(path).Theme; got != "Slate" {
		t.Fatalf("Theme = %q, want %q", got, "Slate")
	}
}

func TestLoad_BadContentFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty theme", "theme = \"\"\n"},
		{"invalid toml", "not valid toml {{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.toml")
			writePrefs(t, path, tt.body)
			if got := Load(path).Theme; got != defaultTheme {
				t.Fatalf("Theme = %q, want %q", got, defaultTheme)
			}
		})
	}
}

func TestSave_ReplacesExistingWithoutTempLeftover(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.toml")
	writePrefs(t, path, "theme = \"Dracula\"\n")

	if err := Save(path, Prefs{Theme: "  Slate "}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if got := Load(path).Theme; got != "Slate" {
		t.Fatalf("Theme = %q, want %q", got, "Slate")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
