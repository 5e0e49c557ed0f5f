package settings

import (
	"path/filepath"
	"testing"

	"github.com/vibetunnel/tui/internal/prefs"
)

func newTestModel(t *testing.T) (Model, *prefs.Store[prefs.AppPreferences], *prefs.Store[prefs.NotificationPreferences]) {
	t.Helper()
	dir := t.TempDir()
	appStore := prefs.NewStore(filepath.Join(dir, prefs.AppPreferencesFile), prefs.DefaultAppPreferences())
	ntfStore := prefs.NewStore(filepath.Join(dir, prefs.NotificationPreferencesFile), prefs.DefaultNotificationPreferences())
	return New(appStore, ntfStore), appStore, ntfStore
}

// rowIndex finds a toggle by name.
func rowIndex(t *testing.T, m Model, name string) int {
	t.Helper()
	for i, tog := range m.toggles {
		if tog.name == name {
			return i
		}
	}
	t.Fatalf("no toggle named %q", name)
	return -1
}

func TestFlipAppToggleSavesDomain(t *testing.T) {
	m, appStore, _ := newTestModel(t)

	m.table.SetCursor(rowIndex(t, m, "Direct keyboard"))
	cmd := m.flipSelected()
	if cmd == nil {
		t.Fatal("flip returned nil cmd")
	}
	saved, ok := cmd().(SavedMsg)
	if !ok {
		t.Fatal("flip cmd did not produce SavedMsg")
	}
	if saved.Domain != "app" || saved.Err != nil {
		t.Errorf("SavedMsg = %+v", saved)
	}

	if !appStore.Load().UseDirectKeyboard {
		t.Error("toggle not persisted to the app domain file")
	}
}

func TestSubTogglesGatedByMasterSwitch(t *testing.T) {
	m, _, ntfStore := newTestModel(t)

	// Master switch defaults to off; sub-toggles must refuse to flip.
	idx := rowIndex(t, m, "Session exit")
	m.table.SetCursor(idx)
	if cmd := m.flipSelected(); cmd != nil {
		t.Fatal("sub-toggle flipped while the master switch is off")
	}

	// Enable the master switch, then the sub-toggle works.
	m.table.SetCursor(rowIndex(t, m, "Notifications"))
	if cmd := m.flipSelected(); cmd == nil {
		t.Fatal("master switch refused to flip")
	} else {
		cmd()
	}
	m.table.SetCursor(idx)
	cmd := m.flipSelected()
	if cmd == nil {
		t.Fatal("sub-toggle refused to flip with the master switch on")
	}
	if saved := cmd().(SavedMsg); saved.Domain != "notifications" || saved.Err != nil {
		t.Errorf("SavedMsg = %+v", saved)
	}

	got := ntfStore.Load()
	if !got.Enabled {
		t.Error("master switch not persisted")
	}
	if got.SessionExit {
		t.Error("session exit toggle not persisted (default is true, flip should store false)")
	}
}

func TestSetPreferencesAppliesBroadcast(t *testing.T) {
	m, _, _ := newTestModel(t)

	ntf := prefs.DefaultNotificationPreferences()
	ntf.Enabled = true
	app := prefs.DefaultAppPreferences()
	app.ShowLogLink = true
	m.SetPreferences(app, ntf)

	if !m.app.ShowLogLink || !m.ntf.Enabled {
		t.Errorf("broadcast not applied: app=%+v ntf=%+v", m.app, m.ntf)
	}
}
