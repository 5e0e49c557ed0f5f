// Package logview shows the server log: polled on a fixed interval,
// reparsed wholesale each cycle, filtered locally.
package logview

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	"charm.land/lipgloss/v2"

	"github.com/vibetunnel/tui/internal/api"
	"github.com/vibetunnel/tui/internal/logs"
	"github.com/vibetunnel/tui/internal/ui"
)

const requestTimeout = 15 * time.Second

// LogAPI is the subset of the server client this view drives.
type LogAPI interface {
	LogRaw(ctx context.Context) (string, error)
	LogInfo(ctx context.Context) (api.LogInfo, error)
	ClearLogs(ctx context.Context) error
}

// Msg marks messages owned by this view.
type Msg interface{ isLogviewMsg() }

type logLoadedMsg struct {
	raw string
	err error
}
type infoLoadedMsg struct {
	info api.LogInfo
	err  error
}
type clearedMsg struct{ err error }

func (logLoadedMsg) isLogviewMsg()  {}
func (infoLoadedMsg) isLogviewMsg() {}
func (clearedMsg) isLogviewMsg()    {}

// sourceFilter selects client, server or both.
type sourceFilter int

const (
	sourceAll sourceFilter = iota
	sourceClient
	sourceServer
)

// Model is the log viewer.
type Model struct {
	client   LogAPI
	viewport viewport.Model
	search   textinput.Model

	entries  []logs.Entry
	info     api.LogInfo
	level    int // index into logs.Levels; -1 = everything
	source   sourceFilter
	query    string
	searched bool // search input focused
	errText  string

	width  int
	height int
}

// New creates the log viewer.
func New(client LogAPI) Model {
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(24))
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter..."
	ti.CharLimit = 128
	return Model{
		client:   client,
		viewport: vp,
		search:   ti,
		level:    -1,
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.SetWidth(w - 2)
	m.viewport.SetHeight(h - 2)
	m.search.SetWidth(w - 4)
}

// Refresh polls the raw log and its metadata.
func (m *Model) Refresh() tea.Cmd {
	client := m.client
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			raw, err := client.LogRaw(ctx)
			return logLoadedMsg{raw: raw, err: err}
		},
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			info, err := client.LogInfo(ctx)
			return infoLoadedMsg{info: info, err: err}
		},
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case logLoadedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		// Entries are rebuilt from scratch every cycle; no merge.
		m.entries = logs.Parse(msg.raw)
		m.refreshContent()
		return m, nil

	case infoLoadedMsg:
		if msg.err == nil {
			m.info = msg.info
		}
		return m, nil

	case clearedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.entries = nil
		m.refreshContent()
		return m, m.Refresh()

	case tea.KeyPressMsg:
		if m.searched {
			switch msg.String() {
			case "enter", "esc":
				m.searched = false
				m.search.Blur()
				m.query = strings.TrimSpace(m.search.Value())
				m.refreshContent()
				return m, nil
			}
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "l":
			// cycle: all → debug → info → warn → error → all
			m.level++
			if m.level >= len(logs.Levels) {
				m.level = -1
			}
			m.refreshContent()
			return m, nil
		case "s":
			m.source = (m.source + 1) % 3
			m.refreshContent()
			return m, nil
		case "/":
			m.searched = true
			m.search.SetValue(m.query)
			return m, m.search.Focus()
		case "C":
			client := m.client
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
				defer cancel()
				return clearedMsg{err: client.ClearLogs(ctx)}
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the log view.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	if m.searched {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(ui.StyleDim.Render(" l level  s source  / filter  C clear  esc back"))
	}
	return b.String()
}

func (m Model) renderHeader() string {
	level := "all"
	if m.level >= 0 {
		level = logs.Levels[m.level] + "+"
	}
	source := "all"
	switch m.source {
	case sourceClient:
		source = "client"
	case sourceServer:
		source = "server"
	}
	header := ui.StyleAccent.Render(" Logs  ") +
		ui.StyleDim.Render(fmt.Sprintf("level:%s  source:%s", level, source))
	if m.query != "" {
		header += ui.StyleDim.Render("  filter:") + m.query
	}
	if m.info.Size > 0 {
		header += ui.StyleDim.Render("  " + ui.FormatBytes(m.info.Size))
	}
	if m.errText != "" {
		header += "  " + ui.StyleError.Render(m.errText)
	}
	return header
}

func (m *Model) refreshContent() {
	level := ""
	if m.level >= 0 {
		level = logs.Levels[m.level]
	}
	filtered := logs.Filter(m.entries, level,
		m.source == sourceClient, m.source == sourceServer, m.query)

	atBottom := m.viewport.AtBottom()

	var b strings.Builder
	for _, e := range filtered {
		b.WriteString(ui.StyleDim.Render(e.Timestamp))
		b.WriteByte(' ')
		b.WriteString(levelStyle(e.Level).Render(strings.ToUpper(e.Level)))
		b.WriteByte(' ')
		module := e.Module
		if e.IsClient {
			module = "client:" + module
		}
		b.WriteString(ui.StyleAccent.Render("[" + module + "]"))
		b.WriteByte(' ')
		b.WriteString(e.Message)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		b.WriteString(ui.StyleDim.Render("(no log entries)"))
	}
	m.viewport.SetContent(b.String())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case "error":
		return ui.StyleError
	case "warn":
		return ui.StyleWarn
	case "debug":
		return ui.StyleDim
	default:
		return ui.StyleRunning
	}
}
