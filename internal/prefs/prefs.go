// Package prefs persists user preferences as small JSON files and
// fans out changes to subscribers through a typed in-process bus.
// Each preference domain has its own file and its own bus; domains
// never couple.
package prefs

// AppPreferences is the application preference domain.
type AppPreferences struct {
	UseDirectKeyboard bool `json:"useDirectKeyboard"`
	ShowLogLink       bool `json:"showLogLink"`
}

// DefaultAppPreferences returns the defaults merged under any stored
// values on load.
func DefaultAppPreferences() AppPreferences {
	return AppPreferences{
		UseDirectKeyboard: false,
		ShowLogLink:       false,
	}
}

// NotificationPreferences is the notification preference domain.
type NotificationPreferences struct {
	Enabled          bool `json:"enabled"`
	SessionExit      bool `json:"sessionExit"`
	SessionStart     bool `json:"sessionStart"`
	SessionError     bool `json:"sessionError"`
	SystemAlerts     bool `json:"systemAlerts"`
	SoundEnabled     bool `json:"soundEnabled"`
	VibrationEnabled bool `json:"vibrationEnabled"`
}

// DefaultNotificationPreferences returns the defaults: notifications
// off as a whole, individual event types on so enabling the master
// switch is enough.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Enabled:          false,
		SessionExit:      true,
		SessionStart:     true,
		SessionError:     true,
		SystemAlerts:     true,
		SoundEnabled:     true,
		VibrationEnabled: false,
	}
}

// File names under the config dir, one per domain.
const (
	AppPreferencesFile          = "app_preferences.json"
	NotificationPreferencesFile = "notification_preferences.json"
	FlagsFile                   = "flags.json"
)

// One-shot boolean flags (dismissed banners and the like).
const (
	FlagBannerDismissed    = "notification-banner-dismissed"
	FlagOnboardingComplete = "onboarding-complete"
)
