// Package prefs persists the console's local UI preferences in a small
// YAML file.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	TabDomains   = "domains"
	TabIPs       = "ips"
	TabTemplates = "templates"

	DefaultTab = TabDomains
)

// ValidTab reports whether tab names a whitelist tab.
func ValidTab(tab string) bool {
	switch tab {
	case TabDomains, TabIPs, TabTemplates:
		return true
	}
	return false
}

type document struct {
	WhitelistActiveTab string `yaml:"whitelist_active_tab"`
}

// Store is a file-backed preference store. An empty path keeps preferences
// in memory only.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
}

// Open reads the preference file at path. A missing, unreadable or invalid
// file yields defaults.
func Open(path string) *Store {
	s := &Store{path: path, doc: document{WhitelistActiveTab: DefaultTab}}
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("reading preferences, using defaults", "path", path, "error", err)
		}
		return s
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Warn("parsing preferences, using defaults", "path", path, "error", err)
		return s
	}
	if doc.WhitelistActiveTab != "" && !ValidTab(doc.WhitelistActiveTab) {
		slog.Warn("ignoring unknown whitelist tab", "tab", doc.WhitelistActiveTab)
		doc.WhitelistActiveTab = ""
	}
	if doc.WhitelistActiveTab == "" {
		doc.WhitelistActiveTab = DefaultTab
	}
	s.doc = doc
	return s
}

// ActiveTab returns the remembered whitelist tab.
func (s *Store) ActiveTab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.WhitelistActiveTab
}

// SetActiveTab remembers tab and writes the file.
func (s *Store) SetActiveTab(tab string) error {
	if !ValidTab(tab) {
		return fmt.Errorf("unknown whitelist tab %q", tab)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.WhitelistActiveTab = tab
	return s.save()
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(&s.doc)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating preferences dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing preferences: %w", err)
	}
	return nil
}
