package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileDefaults(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "prefs.yaml"))
	assert.Equal(t, TabDomains, s.ActiveTab())
}

func TestSetActiveTabPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	s := Open(path)

	require.NoError(t, s.SetActiveTab(TabTemplates))
	assert.Equal(t, TabTemplates, s.ActiveTab())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "whitelist_active_tab: templates")

	reopened := Open(path)
	assert.Equal(t, TabTemplates, reopened.ActiveTab())
}

func TestSetActiveTabRejectsUnknown(t *testing.T) {
	s := Open("")
	assert.Error(t, s.SetActiveTab("clients"))
	assert.Equal(t, TabDomains, s.ActiveTab())
}

func TestOpenInvalidFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage yaml", "{{{"},
		{"unknown tab", "whitelist_active_tab: bogus\n"},
		{"empty tab", "whitelist_active_tab: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			assert.Equal(t, DefaultTab, Open(path).ActiveTab())
		})
	}
}

func TestMemoryOnlyStore(t *testing.T) {
	s := Open("")
	require.NoError(t, s.SetActiveTab(TabIPs))
	assert.Equal(t, TabIPs, s.ActiveTab())
}
