package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
	if p.View != "" {
		t.Fatalf("View = %q, want empty", p.View)
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "galley")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	prefsFile := filepath.Join(prefsDir, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("theme = \"Slate\"\nview = \"History\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Slate" {
		t.Fatalf("Theme = %q, want %q", p.Theme, "Slate")
	}
	if p.View != "history" {
		t.Fatalf("View = %q, want %q", p.View, "history")
	}
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "subdir", "prefs.toml")

	if err := Save(prefsFile, Prefs{Theme: "Kanagawa", View: "stats"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Theme != "Kanagawa" || loaded.View != "stats" {
		t.Fatalf("Load = %+v, want Kanagawa/stats", loaded)
	}
}

func TestLoad_BadContentFallsBackToDefault(t *testing.T) {
	cases := map[string]string{
		"empty theme":  "theme = \"\"\n",
		"invalid toml": "not valid toml {{{\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(prefsFile, []byte(body), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			p, err := Load(prefsFile)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if p.Theme != defaultTheme {
				t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
			}
		})
	}
}
