// Package sessions renders the session list and drives per-session
// kill/cleanup. The list owns a local copy of the session array handed
// down from the app; removals are applied optimistically and the next
// fetch replaces the array wholesale.
package sessions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/table"
	"charm.land/bubbles/v2/viewport"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/vibetunnel/tui/internal/api"
	"github.com/vibetunnel/tui/internal/ui"
)

const (
	previewWidthFrac = 0.4
	minPreviewWidth  = 30
	requestTimeout   = 15 * time.Second
)

// SessionAPI is the subset of the server client this view drives.
type SessionAPI interface {
	KillSession(ctx context.Context, id string) error
	CleanupSession(ctx context.Context, id string) error
	CleanupExited(ctx context.Context) error
}

// Msg marks messages owned by this view so the app can route them here
// regardless of which view is active.
type Msg interface{ isSessionsMsg() }

// KilledMsg is emitted after a successful kill or cleanup. Session is
// the snapshot used for the request, not a refetched copy.
type KilledMsg struct {
	SessionID string
	Session   api.Session
}

// KillErrorMsg is emitted when a kill or cleanup fails; the card has
// already reverted to idle.
type KillErrorMsg struct {
	SessionID string
	Err       error
}

// CleanupDoneMsg is emitted after the bulk cleanup batch has been
// spliced out locally.
type CleanupDoneMsg struct{}

// CleanupErrorMsg is emitted when bulk cleanup fails.
type CleanupErrorMsg struct{ Err error }

// CopiedMsg is emitted after a successful clipboard copy.
type CopiedMsg struct{ Value string }

// CopyFailedMsg is emitted when the clipboard is unavailable.
type CopyFailedMsg struct{ Err error }

// internal messages
type collapseDoneMsg struct{ id string }
type killResultMsg struct {
	session api.Session
	cleanup bool
	err     error
}
type cleanupResultMsg struct{ err error }
type cleanupSpliceMsg struct{}
type spinnerTickMsg struct{}
type activityExpireMsg struct {
	id  string
	gen int
}

func (collapseDoneMsg) isSessionsMsg()   {}
func (killResultMsg) isSessionsMsg()     {}
func (cleanupResultMsg) isSessionsMsg()  {}
func (cleanupSpliceMsg) isSessionsMsg()  {}
func (spinnerTickMsg) isSessionsMsg()    {}
func (activityExpireMsg) isSessionsMsg() {}

// Model is the sessions view.
type Model struct {
	client   SessionAPI
	table    table.Model
	preview  viewport.Model
	sessions []api.Session
	cards    map[string]*card
	width    int
	height   int
	focused  bool
	loaded   bool

	hideExited bool
	spinning   bool

	cleanupInFlight   bool
	cleanupCollapsing bool
}

// New creates the sessions view.
func New(client SessionAPI) Model {
	cols := []table.Column{
		{Title: " ", Width: 2},
		{Title: "name", Width: 24},
		{Title: "status", Width: 10},
		{Title: "pid", Width: 7},
		{Title: "started", Width: 10},
		{Title: "dir", Width: 30},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
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

	vp := viewport.New(viewport.WithWidth(40), viewport.WithHeight(10))

	return Model{
		client:  client,
		table:   t,
		preview: vp,
		cards:   make(map[string]*card),
		focused: true,
	}
}

// SetSessions replaces the local session array wholesale with the
// server's authoritative list. Card state survives for ids still
// present; vanished ids are pruned.
func (m *Model) SetSessions(sessions []api.Session) {
	m.sessions = sessions
	m.loaded = true

	alive := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		alive[s.ID] = true
		if _, ok := m.cards[s.ID]; !ok {
			m.cards[s.ID] = &card{}
		}
	}
	for id := range m.cards {
		if !alive[id] {
			delete(m.cards, id)
		}
	}

	m.rebuildRows()
}

// HideExited reports the current filter state.
func (m *Model) HideExited() bool { return m.hideExited }

// ToggleHideExited flips the exited filter.
func (m *Model) ToggleHideExited() {
	m.hideExited = !m.hideExited
	m.rebuildRows()
}

// Visible returns the sessions passing the filter, in list order.
// Only status "exited" is excluded; no other status is special.
func (m *Model) Visible() []api.Session {
	if !m.hideExited {
		return m.sessions
	}
	var out []api.Session
	for _, s := range m.sessions {
		if s.Status == api.StatusExited {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SelectedSession returns the currently selected session, if any.
func (m *Model) SelectedSession() *api.Session {
	visible := m.Visible()
	idx := m.table.Cursor()
	if idx >= 0 && idx < len(visible) {
		return &visible[idx]
	}
	return nil
}

// RemoveSession splices a session out of the local array immediately.
// The caller is expected to refetch; the next SetSessions is
// authoritative either way.
func (m *Model) RemoveSession(id string) {
	for i, s := range m.sessions {
		if s.ID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			break
		}
	}
	delete(m.cards, id)
	m.rebuildRows()
}

// KillSelected starts the kill lifecycle for the selected session.
// Running sessions get an immediate DELETE; exited sessions play the
// fixed collapse first, then the cleanup request. A second call while
// one is in flight is a no-op.
func (m *Model) KillSelected() tea.Cmd {
	s := m.SelectedSession()
	if s == nil {
		return nil
	}
	return m.kill(*s)
}

func (m *Model) kill(s api.Session) tea.Cmd {
	c := m.cards[s.ID]
	if c == nil || !c.canKill(s.Status) {
		return nil
	}

	if s.Status == api.StatusExited {
		c.phase = cardCollapsing
		id := s.ID
		m.rebuildRows()
		return tea.Tick(collapseDelay, func(time.Time) tea.Msg {
			return collapseDoneMsg{id: id}
		})
	}

	c.phase = cardKilling
	m.rebuildRows()
	return tea.Batch(m.requestKill(s, false), m.startSpinner())
}

// CleanupExited issues the bulk cleanup. Guarded by an in-flight flag:
// a second invocation while one is pending performs no request.
func (m *Model) CleanupExited() tea.Cmd {
	if m.cleanupInFlight {
		return nil
	}
	m.cleanupInFlight = true
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return cleanupResultMsg{err: client.CleanupExited(ctx)}
	}
}

// CopySelectedPID copies the selected session's pid to the clipboard.
// Has no effect on the kill lifecycle.
func (m *Model) CopySelectedPID() tea.Cmd {
	s := m.SelectedSession()
	if s == nil || s.PID == 0 {
		return nil
	}
	pid := strconv.Itoa(s.PID)
	return func() tea.Msg {
		if err := clipboard.WriteAll(pid); err != nil {
			return CopyFailedMsg{Err: err}
		}
		return CopiedMsg{Value: pid}
	}
}

// MarkActivity lights the activity pulse for a session. Events for
// sessions that are not running are ignored; each event restarts the
// debounce window.
func (m *Model) MarkActivity(id string) tea.Cmd {
	var sess *api.Session
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			sess = &m.sessions[i]
			break
		}
	}
	if sess == nil || sess.Status != api.StatusRunning {
		return nil
	}
	c := m.cards[id]
	if c == nil {
		return nil
	}
	c.active = true
	c.activityGen++
	gen := c.activityGen
	m.rebuildRows()
	return tea.Tick(activityWindow, func(time.Time) tea.Msg {
		return activityExpireMsg{id: id, gen: gen}
	})
}

// Focus sets focus on the table.
func (m *Model) Focus() {
	m.focused = true
	m.table.Focus()
}

// Blur removes focus from the table.
func (m *Model) Blur() {
	m.focused = false
	m.table.Blur()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h

	previewW := int(float64(w) * previewWidthFrac)
	if previewW < minPreviewWidth {
		previewW = minPreviewWidth
	}
	tableW := w - previewW - 3

	m.table.SetWidth(tableW)
	m.table.SetHeight(h)
	m.preview.SetWidth(previewW)
	m.preview.SetHeight(h)

	fixedW := 2 + 24 + 10 + 7 + 10 + 5
	dirW := tableW - fixedW
	if dirW < 10 {
		dirW = 10
	}
	cols := m.table.Columns()
	if len(cols) == 6 {
		cols[5].Width = dirW
		m.table.SetColumns(cols)
	}
}

// Update handles messages for the sessions view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case collapseDoneMsg:
		c := m.cards[msg.id]
		if c == nil || c.phase != cardCollapsing {
			return m, nil
		}
		var sess *api.Session
		for i := range m.sessions {
			if m.sessions[i].ID == msg.id {
				sess = &m.sessions[i]
				break
			}
		}
		if sess == nil {
			return m, nil
		}
		c.phase = cardKilling
		m.rebuildRows()
		return m, tea.Batch(m.requestKill(*sess, true), m.startSpinner())

	case killResultMsg:
		c := m.cards[msg.session.ID]
		if c != nil {
			c.phase = cardIdle
			c.spinnerFrame = 0
		}
		if msg.err != nil {
			m.rebuildRows()
			return m, func() tea.Msg {
				return KillErrorMsg{SessionID: msg.session.ID, Err: msg.err}
			}
		}
		m.RemoveSession(msg.session.ID)
		session := msg.session
		return m, func() tea.Msg {
			return KilledMsg{SessionID: session.ID, Session: session}
		}

	case cleanupResultMsg:
		m.cleanupInFlight = false
		if msg.err != nil {
			return m, func() tea.Msg { return CleanupErrorMsg{Err: msg.err} }
		}
		// Collapse every exited card, then splice them all in one
		// batch once the fixed delay lands.
		m.cleanupCollapsing = true
		for _, s := range m.sessions {
			if s.Status == api.StatusExited {
				if c := m.cards[s.ID]; c != nil && c.phase == cardIdle {
					c.phase = cardCollapsing
				}
			}
		}
		m.rebuildRows()
		return m, tea.Tick(collapseDelay, func(time.Time) tea.Msg {
			return cleanupSpliceMsg{}
		})

	case cleanupSpliceMsg:
		if !m.cleanupCollapsing {
			return m, nil
		}
		m.cleanupCollapsing = false
		kept := m.sessions[:0]
		for _, s := range m.sessions {
			if s.Status == api.StatusExited {
				delete(m.cards, s.ID)
				continue
			}
			kept = append(kept, s)
		}
		m.sessions = kept
		m.rebuildRows()
		return m, func() tea.Msg { return CleanupDoneMsg{} }

	case spinnerTickMsg:
		any := false
		for _, c := range m.cards {
			if c.phase == cardKilling {
				c.spinnerFrame = (c.spinnerFrame + 1) % len(ui.SpinnerFrames)
				any = true
			}
		}
		if !any {
			m.spinning = false
			return m, nil
		}
		m.rebuildRows()
		return m, tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
			return spinnerTickMsg{}
		})

	case activityExpireMsg:
		c := m.cards[msg.id]
		if c != nil && c.activityGen == msg.gen {
			c.active = false
			m.rebuildRows()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table with the detail pane beside it.
func (m Model) View() string {
	visible := m.Visible()
	if len(visible) == 0 {
		return m.emptyState()
	}

	tableView := m.table.View()
	detail := ui.StylePreviewBorder.
		Width(m.previewWidth()).
		Height(m.height).
		Render(m.renderDetail())

	return lipgloss.JoinHorizontal(lipgloss.Top, tableView, detail)
}

func (m Model) emptyState() string {
	var msg string
	switch {
	case !m.loaded:
		msg = "Loading sessions..."
	case len(m.sessions) == 0:
		msg = "No sessions. Start one with the vibetunnel CLI."
	default:
		msg = "All sessions are exited (press e to show them)."
	}
	return ui.StyleDim.Render(" " + msg)
}

func (m *Model) previewWidth() int {
	pw := int(float64(m.width) * previewWidthFrac)
	if pw < minPreviewWidth {
		pw = minPreviewWidth
	}
	return pw
}

func (m *Model) rebuildRows() {
	visible := m.Visible()
	rows := make([]table.Row, len(visible))
	for i, s := range visible {
		c := m.cards[s.ID]
		icon := ui.StatusIcon(s.Status, c != nil && c.active)
		status := s.Status
		if c != nil {
			switch c.phase {
			case cardKilling:
				icon = ui.StyleWarn.Render(ui.SpinnerFrames[c.spinnerFrame])
				status = "killing"
			case cardCollapsing:
				icon = ui.StyleDim.Render("▸")
				status = "cleanup"
			}
		}
		pid := ""
		if s.PID != 0 {
			pid = strconv.Itoa(s.PID)
		}
		rows[i] = table.Row{
			icon,
			ui.Truncate(s.DisplayName(), 24),
			status,
			pid,
			ui.FormatTime(s.StartedAt),
			s.WorkingDir,
		}
	}
	m.table.SetRows(rows)
}

func (m *Model) renderDetail() string {
	s := m.SelectedSession()
	if s == nil {
		return ui.StyleDim.Render("Select a session")
	}

	var b strings.Builder
	b.WriteString(ui.StyleAccent.Render("Session: ") + s.DisplayName() + "\n")
	b.WriteString(ui.StyleDim.Render("ID:      ") + s.ID + "\n")
	b.WriteString(ui.StyleDim.Render("Status:  ") + s.Status)
	if s.ExitCode != nil {
		fmt.Fprintf(&b, " (exit %d)", *s.ExitCode)
	}
	b.WriteByte('\n')
	if s.PID != 0 {
		fmt.Fprintf(&b, "%s %d  %s\n",
			ui.StyleDim.Render("PID:    "), s.PID, ui.StyleDim.Render("(y to copy)"))
	}
	if len(s.Command) > 0 {
		b.WriteString(ui.StyleDim.Render("Command: ") + strings.Join(s.Command, " ") + "\n")
	}
	b.WriteString(ui.StyleDim.Render("Dir:     ") + s.WorkingDir + "\n")
	if s.StartedAt != "" {
		b.WriteString(ui.StyleDim.Render("Started: ") + ui.FormatTime(s.StartedAt) + "\n")
	}
	if s.Active != nil {
		state := "idle"
		if *s.Active {
			state = "active"
		}
		b.WriteString(ui.StyleDim.Render("Server:  ") + state + "\n")
	}

	b.WriteByte('\n')
	if s.Status == api.StatusRunning {
		b.WriteString(ui.StyleDim.Render("x kill   y copy pid"))
	} else {
		b.WriteString(ui.StyleDim.Render("x clean up   c clean up all exited"))
	}
	return b.String()
}

func (m *Model) requestKill(s api.Session, cleanup bool) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var err error
		if cleanup {
			err = client.CleanupSession(ctx, s.ID)
		} else {
			err = client.KillSession(ctx, s.ID)
		}
		return killResultMsg{session: s, cleanup: cleanup, err: err}
	}
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}
