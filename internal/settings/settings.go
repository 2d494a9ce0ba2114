// Package settings owns the persisted engine state: the calendar widget
// id, note folders, and the rule set. A single Manager instance is
// injected into every component that needs it; nothing reads this state
// ambiently.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/viewday/vaultsync/internal/models"
)

// Settings is the persisted record.
type Settings struct {
	WidgetID          string        `json:"widgetId"`
	MeetingNoteFolder string        `json:"meetingNoteFolder,omitempty"`
	PeriodicFolder    string        `json:"periodicFolder,omitempty"`
	Rules             []models.Rule `json:"rules"`
}

// Manager loads, serves, and saves Settings. Reads return a copy; the
// only mutator is Replace-style calls that persist before returning.
type Manager struct {
	path string

	mu      sync.RWMutex
	current Settings
}

// NewManager creates a Manager persisting to path. If the file exists it
// is loaded; a missing file yields empty settings (first run).
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &m.current); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return m, nil
}

// Get returns a copy of the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.current
	s.Rules = append([]models.Rule(nil), m.current.Rules...)
	return s
}

// ActiveRules returns the active subset of the rule set.
func (m *Manager) ActiveRules() []models.Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Rule
	for _, r := range m.current.Rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

// ReplaceRules validates the new rule set, swaps it in, and persists.
func (m *Manager) ReplaceRules(rules []models.Rule) error {
	if err := models.ValidateRules(rules); err != nil {
		return fmt.Errorf("settings: invalid rules: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Rules = append([]models.Rule(nil), rules...)
	return m.saveLocked()
}

// Update applies fn to the settings and persists the result.
func (m *Manager) Update(fn func(*Settings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.current)
	return m.saveLocked()
}

// saveLocked writes the settings file atomically: tmp file → rename.
func (m *Manager) saveLocked() error {
	data, err := json.MarshalIndent(m.current, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("settings: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-tmp-*")
	if err != nil {
		return fmt.Errorf("settings: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("settings: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("settings: close temp: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("settings: rename: %w", err)
	}
	return nil
}
