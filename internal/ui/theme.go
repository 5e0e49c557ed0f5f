package ui

import (
	"os"
	"path/filepath"

	"charm.land/lipgloss/v2"
	"github.com/BurntSushi/toml"
)

// Theme holds the resolved color palette as hex strings.
type Theme struct {
	Foreground string
	Background string
	Accent     string
	Dim        string
	Red        string
	Green      string
	Yellow     string
	Blue       string
	Border     string
	Header     string
}

// themeFile matches the optional theme.toml under the config dir.
type themeFile struct {
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Accent     string `toml:"accent"`
	Dim        string `toml:"dim"`
	Red        string `toml:"red"`
	Green      string `toml:"green"`
	Yellow     string `toml:"yellow"`
	Blue       string `toml:"blue"`
	Border     string `toml:"border"`
	Header     string `toml:"header"`
}

// defaultTheme returns the built-in fallback theme.
func defaultTheme() Theme {
	return Theme{
		Foreground: "#e5e7eb",
		Background: "#1a1b26",
		Accent:     "#8b5cf6",
		Dim:        "#6b7280",
		Red:        "#ef4444",
		Green:      "#22c55e",
		Yellow:     "#eab308",
		Blue:       "#3b82f6",
		Border:     "#374151",
		Header:     "#f9fafb",
	}
}

// T is the active theme, resolved once at startup.
var T = defaultTheme()

// LoadTheme reads the user theme file from configDir, falling back to
// defaults for any missing field.
func LoadTheme(configDir string) Theme {
	path := filepath.Join(configDir, "theme.toml")
	if _, err := os.Stat(path); err != nil {
		return defaultTheme()
	}

	var tf themeFile
	if _, err := toml.DecodeFile(path, &tf); err != nil {
		return defaultTheme()
	}

	t := defaultTheme()
	if tf.Foreground != "" {
		t.Foreground = tf.Foreground
	}
	if tf.Background != "" {
		t.Background = tf.Background
	}
	if tf.Accent != "" {
		t.Accent = tf.Accent
	}
	if tf.Dim != "" {
		t.Dim = tf.Dim
	}
	if tf.Red != "" {
		t.Red = tf.Red
	}
	if tf.Green != "" {
		t.Green = tf.Green
	}
	if tf.Yellow != "" {
		t.Yellow = tf.Yellow
	}
	if tf.Blue != "" {
		t.Blue = tf.Blue
	}
	if tf.Border != "" {
		t.Border = tf.Border
	}
	if tf.Header != "" {
		t.Header = tf.Header
	}
	return t
}

// ApplyTheme resolves the theme and rebinds the shared styles.
func ApplyTheme(configDir string) {
	T = LoadTheme(configDir)

	ColorGreen = lipgloss.Color(T.Green)
	ColorRed = lipgloss.Color(T.Red)
	ColorYellow = lipgloss.Color(T.Yellow)
	ColorBlue = lipgloss.Color(T.Blue)
	ColorDim = lipgloss.Color(T.Dim)
	ColorWhite = lipgloss.Color(T.Foreground)
	ColorBorder = lipgloss.Color(T.Border)
	ColorAccent = lipgloss.Color(T.Accent)
	ColorHeader = lipgloss.Color(T.Header)

	StyleHeader = StyleHeader.Foreground(ColorHeader)
	StyleRunning = StyleRunning.Foreground(ColorGreen)
	StyleExited = StyleExited.Foreground(ColorDim)
	StyleDim = StyleDim.Foreground(ColorDim)
	StyleAccent = StyleAccent.Foreground(ColorAccent)
	StyleError = StyleError.Foreground(ColorRed)
	StyleWarn = StyleWarn.Foreground(ColorYellow)
	StylePreviewBorder = StylePreviewBorder.BorderForeground(ColorBorder)
}
