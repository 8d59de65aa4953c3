package view

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSwitchTabRequiresAuth(t *testing.T) {
	p := DefaultPreferences()
	if p.Tab != TabDashboard || p.DarkMode || p.Category != "All" {
		t.Fatalf("defaults = %+v", p)
	}

	for _, tab := range []Tab{TabProfile, TabSettings} {
		if err := p.SwitchTab(tab, false); !errors.Is(err, ErrLoginRequired) {
			t.Fatalf("%s anonymous = %v", tab, err)
		}
	}
	if err := p.SwitchTab(TabHistory, false); err != nil {
		t.Fatalf("history: %v", err)
	}
	if err := p.SwitchTab(TabSettings, true); err != nil || p.Tab != TabSettings {
		t.Fatalf("settings signed in: %v, tab %s", err, p.Tab)
	}

	p.OnLogout()
	if p.Tab != TabDashboard {
		t.Fatalf("logout should return to dashboard, got %s", p.Tab)
	}
}

func TestParseTab(t *testing.T) {
	if tab, err := ParseTab("profile"); err != nil || tab != TabProfile {
		t.Fatalf("got %s, %v", tab, err)
	}
	if _, err := ParseTab("admin"); err == nil {
		t.Fatal("unknown tab should fail")
	}
}

func TestToggleAndCategory(t *testing.T) {
	p := DefaultPreferences()
	if !p.ToggleDark() || p.ToggleDark() {
		t.Fatal("toggle should flip")
	}
	p.SetCategory(" Laptops ")
	if p.Category != "Laptops" {
		t.Fatalf("category = %q", p.Category)
	}
	p.SetCategory("  ")
	if p.Category != "All" {
		t.Fatalf("blank category = %q", p.Category)
	}
}

func TestPreferencesPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	p, err := LoadPreferences(path)
	if err != nil || p != DefaultPreferences() {
		t.Fatalf("missing file: %+v, %v", p, err)
	}

	p.DarkMode = true
	p.Model = "gemini-2.5-pro"
	p.Tab = TabSettings
	if err := SavePreferences(path, p); err != nil {
		t.Fatal(err)
	}

	got, err := LoadPreferences(path)
	if err != nil {
		t.Fatal(err)
	}
	if !got.DarkMode || got.Model != "gemini-2.5-pro" {
		t.Fatalf("loaded = %+v", got)
	}
	if got.Tab != TabDashboard {
		t.Fatalf("protected tab should not be restored before login, got %s", got.Tab)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPreferences(path); err == nil {
		t.Fatal("corrupt file should error")
	}
}
