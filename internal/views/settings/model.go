// Package settings is the unified settings panel: one table over both
// preference domains. Toggles write through the stores, whose buses
// keep every other consumer current.
package settings

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/table"
	"charm.land/lipgloss/v2"

	"github.com/vibetunnel/tui/internal/prefs"
	"github.com/vibetunnel/tui/internal/ui"
)

// Msg marks messages owned by this view.
type Msg interface{ isSettingsMsg() }

// SavedMsg reports a toggle write, successful or not.
type SavedMsg struct {
	Domain string // "app" or "notifications"
	Err    error
}

func (SavedMsg) isSettingsMsg() {}

// toggle is one row of the settings table.
type toggle struct {
	domain string
	name   string
	desc   string
	get    func(prefs.AppPreferences, prefs.NotificationPreferences) bool
	set    func(*prefs.AppPreferences, *prefs.NotificationPreferences)
	// sub marks notification sub-toggles gated by the master switch.
	sub bool
}

// Model is the settings view.
type Model struct {
	appStore *prefs.Store[prefs.AppPreferences]
	ntfStore *prefs.Store[prefs.NotificationPreferences]

	app     prefs.AppPreferences
	ntf     prefs.NotificationPreferences
	toggles []toggle
	table   table.Model
	width   int
	height  int
}

// New creates the settings view, loading current values.
func New(appStore *prefs.Store[prefs.AppPreferences], ntfStore *prefs.Store[prefs.NotificationPreferences]) Model {
	cols := []table.Column{
		{Title: " ", Width: 3},
		{Title: "setting", Width: 28},
		{Title: "description", Width: 44},
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		Bold(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorBorder)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(ui.T.Accent)).
		Bold(true)
	t.SetStyles(s)

	m := Model{
		appStore: appStore,
		ntfStore: ntfStore,
		app:      appStore.Load(),
		ntf:      ntfStore.Load(),
		table:    t,
		toggles:  buildToggles(),
	}
	m.rebuildRows()
	return m
}

func buildToggles() []toggle {
	return []toggle{
		{
			domain: "app", name: "Direct keyboard",
			desc: "Send keystrokes straight to the terminal",
			get:  func(a prefs.AppPreferences, _ prefs.NotificationPreferences) bool { return a.UseDirectKeyboard },
			set:  func(a *prefs.AppPreferences, _ *prefs.NotificationPreferences) { a.UseDirectKeyboard = !a.UseDirectKeyboard },
		},
		{
			domain: "app", name: "Show log link",
			desc: "Show the log viewer shortcut in the header",
			get:  func(a prefs.AppPreferences, _ prefs.NotificationPreferences) bool { return a.ShowLogLink },
			set:  func(a *prefs.AppPreferences, _ *prefs.NotificationPreferences) { a.ShowLogLink = !a.ShowLogLink },
		},
		{
			domain: "notifications", name: "Notifications",
			desc: "Master switch for push notifications",
			get:  func(_ prefs.AppPreferences, n prefs.NotificationPreferences) bool { return n.Enabled },
			set:  func(_ *prefs.AppPreferences, n *prefs.NotificationPreferences) { n.Enabled = !n.Enabled },
		},
		{
			domain: "notifications", name: "Session start", sub: true,
			desc: "Notify when a session starts",
			get:  func(_ prefs.AppPreferences, n prefs.NotificationPreferences) bool { return n.SessionStart },
			set:  func(_ *prefs.AppPreferences, n *prefs.NotificationPreferences) { n.SessionStart = !n.SessionStart },
		},
		{
			domain: "notifications", name: "Session exit", sub: true,
			desc: "Notify when a session exits",
			get:  func(_ prefs.AppPreferences, n prefs.NotificationPreferences) bool { return n.SessionExit },
			set:  func(_ *prefs.AppPreferences, n *prefs.NotificationPreferences) { n.SessionExit = !n.SessionExit },
		},
		{
			domain: "notifications", name: "Session errors", sub: true,
			desc: "Notify when a session reports an error",
			get:  func(_ prefs.AppPreferences, n prefs.NotificationPreferences) bool { return n.SessionError },
			set:  func(_ *prefs.AppPreferences, n *prefs.NotificationPreferences) { n.SessionError = !n.SessionError },
		},
		{
			domain: "notifications", name: "System alerts", sub: true,
			desc: "Notify on server warnings",
			get:  func(_ prefs.AppPreferences, n prefs.NotificationPreferences) bool { return n.SystemAlerts },
			set:  func(_ *prefs.AppPreferences, n *prefs.NotificationPreferences) { n.SystemAlerts = !n.SystemAlerts },
		},
		{
			domain: "notifications", name: "Sound", sub: true,
			desc: "Play a sound with notifications",
			get:  func(_ prefs.AppPreferences, n prefs.NotificationPreferences) bool { return n.SoundEnabled },
			set:  func(_ *prefs.AppPreferences, n *prefs.NotificationPreferences) { n.SoundEnabled = !n.SoundEnabled },
		},
		{
			domain: "notifications", name: "Vibration", sub: true,
			desc: "Vibrate on supported devices",
			get:  func(_ prefs.AppPreferences, n prefs.NotificationPreferences) bool { return n.VibrationEnabled },
			set:  func(_ *prefs.AppPreferences, n *prefs.NotificationPreferences) { n.VibrationEnabled = !n.VibrationEnabled },
		},
	}
}

// SetPreferences applies externally broadcast values (bus fan-out).
func (m *Model) SetPreferences(app prefs.AppPreferences, ntf prefs.NotificationPreferences) {
	m.app = app
	m.ntf = ntf
	m.rebuildRows()
}

// SetSize updates dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w)
	m.table.SetHeight(h - 1)

	descW := w - 3 - 28 - 6
	if descW < 20 {
		descW = 20
	}
	cols := m.table.Columns()
	if len(cols) == 3 {
		cols[2].Width = descW
		m.table.SetColumns(cols)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "enter", " ":
			return m, m.flipSelected()
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// flipSelected toggles the selected row and saves its domain.
func (m *Model) flipSelected() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.toggles) {
		return nil
	}
	t := m.toggles[idx]
	if t.sub && !m.ntf.Enabled {
		return nil // gated by the master switch
	}
	t.set(&m.app, &m.ntf)
	m.rebuildRows()

	if t.domain == "app" {
		store, v := m.appStore, m.app
		return func() tea.Msg { return SavedMsg{Domain: "app", Err: store.Save(v)} }
	}
	store, v := m.ntfStore, m.ntf
	return func() tea.Msg { return SavedMsg{Domain: "notifications", Err: store.Save(v)} }
}

// View renders the settings table.
func (m Model) View() string {
	return m.table.View() + "\n" +
		ui.StyleDim.Render(" enter toggle  esc back")
}

func (m *Model) rebuildRows() {
	rows := make([]table.Row, len(m.toggles))
	for i, t := range m.toggles {
		mark := ui.StyleDim.Render("[ ]")
		if t.get(m.app, m.ntf) {
			mark = ui.StyleRunning.Render("[x]")
		}
		name := t.name
		if t.sub {
			name = "  " + name
			if !m.ntf.Enabled {
				name = ui.StyleDim.Render(name)
			}
		}
		rows[i] = table.Row{mark, name, t.desc}
	}
	m.table.SetRows(rows)
}
