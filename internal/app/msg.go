package app

import (
	"github.com/vibetunnel/tui/internal/api"
	"github.com/vibetunnel/tui/internal/prefs"
)

// AuthConfigLoadedMsg is sent when the server's auth config is fetched.
type AuthConfigLoadedMsg struct {
	Config api.AuthConfig
	Err    error
}

// SessionsLoadedMsg is sent when the session list is fetched. The
// payload fully replaces local state.
type SessionsLoadedMsg struct {
	Sessions []api.Session
	Err      error
}

// ActionResultMsg is sent when a command palette action completes.
type ActionResultMsg struct {
	Output string
	Err    error
}

// PollTickMsg triggers the periodic refetch.
type PollTickMsg struct{}

// StatusExpireMsg dismisses the status line message.
type StatusExpireMsg struct{ Gen int }

// AppPreferencesChangedMsg carries a broadcast from the app preference
// domain (our save, another view's save, or an external writer).
type AppPreferencesChangedMsg struct {
	Prefs prefs.AppPreferences
}

// NotificationPreferencesChangedMsg carries a broadcast from the
// notification preference domain.
type NotificationPreferencesChangedMsg struct {
	Prefs prefs.NotificationPreferences
}

// LoggedOutMsg is sent after the stored token has been discarded.
type LoggedOutMsg struct{ Err error }
