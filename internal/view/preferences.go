package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Tab string

const (
	TabDashboard Tab = "Dashboard"
	TabHistory   Tab = "History"
	TabProfile   Tab = "Profile"
	TabSettings  Tab = "Settings"
)

var Tabs = []Tab{TabDashboard, TabHistory, TabProfile, TabSettings}

var ErrLoginRequired = errors.New("please log in first")

func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// RequiresAuth reports whether the tab is only shown to signed-in users.
func (t Tab) RequiresAuth() bool {
	return t == TabProfile || t == TabSettings
}

type Preferences struct {
	Tab      Tab    `json:"tab"`
	DarkMode bool   `json:"darkMode"`
	Category string `json:"category"`
	Model    string `json:"model"`
}

func DefaultPreferences() Preferences {
	return Preferences{Tab: TabDashboard, Category: "All"}
}

func (p *Preferences) SwitchTab(t Tab, authenticated bool) error {
	if t.RequiresAuth() && !authenticated {
		return ErrLoginRequired
	}
	p.Tab = t
	return nil
}

func (p *Preferences) ToggleDark() bool {
	p.DarkMode = !p.DarkMode
	return p.DarkMode
}

// SetCategory selects a filter; blank resets to All.
func (p *Preferences) SetCategory(c string) {
	c = strings.TrimSpace(c)
	if c == "" {
		c = "All"
	}
	p.Category = c
}

// OnLogout returns to the dashboard.
func (p *Preferences) OnLogout() {
	p.Tab = TabDashboard
}

// LoadPreferences reads saved preferences, returning defaults when the file
// does not exist yet.
func LoadPreferences(path string) (Preferences, error) {
	p := DefaultPreferences()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultPreferences(), fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := ParseTab(string(p.Tab)); err != nil || p.Tab.RequiresAuth() {
		p.Tab = TabDashboard
	}
	if p.Category == "" {
		p.Category = "All"
	}
	return p, nil
}

func SavePreferences(path string, p Preferences) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
