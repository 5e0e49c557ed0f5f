package ui

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
)

var (
	ColorGreen  = lipgloss.Color("#22c55e")
	ColorRed    = lipgloss.Color("#ef4444")
	ColorYellow = lipgloss.Color("#eab308")
	ColorBlue   = lipgloss.Color("#3b82f6")
	ColorDim    = lipgloss.Color("#6b7280")
	ColorWhite  = lipgloss.Color("#e5e7eb")
	ColorBorder = lipgloss.Color("#374151")
	ColorAccent = lipgloss.Color("#8b5cf6")
	ColorHeader = lipgloss.Color("#f9fafb")

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHeader)

	StyleRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen)

	StyleExited = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorDim)

	StyleDim = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleAccent = lipgloss.NewStyle().
			Foreground(ColorAccent)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorRed)

	StyleWarn = lipgloss.NewStyle().
			Foreground(ColorYellow)

	StylePreviewBorder = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorBorder).
				PaddingLeft(1)
)

// SpinnerFrames cycle while a destructive action is in flight. The
// frame index carries no meaning; it exists only for the animation.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StatusIcon returns an icon for a session status. Only running and
// exited are meaningful; anything else gets a blank.
func StatusIcon(status string, active bool) string {
	switch status {
	case "running":
		if active {
			return lipgloss.NewStyle().Foreground(ColorGreen).Render("◉")
		}
		return lipgloss.NewStyle().Foreground(ColorGreen).Render("●")
	case "exited":
		return lipgloss.NewStyle().Foreground(ColorDim).Render("○")
	default:
		return " "
	}
}

// GitStatusIcon marks a file's git state in listings.
func GitStatusIcon(status string) string {
	switch status {
	case "modified":
		return lipgloss.NewStyle().Foreground(ColorYellow).Render("M")
	case "added":
		return lipgloss.NewStyle().Foreground(ColorGreen).Render("A")
	case "deleted":
		return lipgloss.NewStyle().Foreground(ColorRed).Render("D")
	case "untracked":
		return lipgloss.NewStyle().Foreground(ColorBlue).Render("?")
	default:
		return " "
	}
}

// FormatBytes formats a byte count for display.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatTime formats an ISO 8601 timestamp into a short time string.
func FormatTime(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	now := time.Now()
	t = t.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}
	return t.Format("Jan 02")
}

// Truncate shortens s to max runes with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 1 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
