// Package app wires the views to the server client and owns the
// top-level message flow: child views emit typed messages, the app
// reacts and refetches authoritative state.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/vibetunnel/tui/internal/api"
	"github.com/vibetunnel/tui/internal/auth"
	"github.com/vibetunnel/tui/internal/config"
	"github.com/vibetunnel/tui/internal/notify"
	"github.com/vibetunnel/tui/internal/prefs"
	"github.com/vibetunnel/tui/internal/ui"
	authview "github.com/vibetunnel/tui/internal/views/auth"
	"github.com/vibetunnel/tui/internal/views/command"
	"github.com/vibetunnel/tui/internal/views/filebrowser"
	"github.com/vibetunnel/tui/internal/views/logview"
	"github.com/vibetunnel/tui/internal/views/sessions"
	"github.com/vibetunnel/tui/internal/views/settings"
)

const (
	statusTimeout  = 5 * time.Second
	requestTimeout = 15 * time.Second
)

// Options configure Run.
type Options struct {
	ServerURL  string
	ConfigPath string
	NoAuth     bool
}

// Run starts the TUI application.
func Run(opts Options) error {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg := config.Load(path)
	if opts.ServerURL != "" {
		cfg.Server.URL = opts.ServerURL
	}

	// Background goroutines log via the stdlib logger; route that to a
	// file so it cannot scribble over the alt screen.
	if err := os.MkdirAll(config.StateDir(), 0700); err == nil {
		if f, err := os.OpenFile(filepath.Join(config.StateDir(), "tui.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
			log.SetOutput(f)
			defer f.Close()
		}
	}

	ui.ApplyTheme(config.Dir())

	m := newModel(cfg, opts.NoAuth)
	p := tea.NewProgram(m)

	// Background sources push through program.Send.
	m.stream = api.NewEventStream(m.client, p)
	defer m.stream.Close()

	if w, err := prefs.NewWatcher(m.appPrefs, m.ntfPrefs); err == nil {
		defer w.Close()
	}
	forwardPrefs(p, m.appPrefs, m.ntfPrefs)

	_, err := p.Run()
	return err
}

// forwardPrefs pumps bus broadcasts into the program as messages. The
// cancel funcs are deliberately held for the life of the process.
func forwardPrefs(p *tea.Program, appStore *prefs.Store[prefs.AppPreferences], ntfStore *prefs.Store[prefs.NotificationPreferences]) {
	appCh, _ := appStore.Subscribe()
	ntfCh, _ := ntfStore.Subscribe()
	go func() {
		for v := range appCh {
			p.Send(AppPreferencesChangedMsg{Prefs: v})
		}
	}()
	go func() {
		for v := range ntfCh {
			p.Send(NotificationPreferencesChangedMsg{Prefs: v})
		}
	}()
}

// viewMode identifies which view is active.
type viewMode int

const (
	viewSessions viewMode = iota
	viewAuth
	viewBrowser
	viewLogs
	viewSettings
)

// model is the root application model.
type model struct {
	width    int
	height   int
	mode     viewMode
	prevMode viewMode
	ready    bool
	showHelp bool
	keys     KeyMap

	cfg      config.Config
	client   *api.Client
	tokens   *auth.TokenStore
	keypair  *auth.KeyPair
	deviceID string
	skipAuth bool

	stream   *api.EventStream
	notifier *notify.Notifier

	appPrefs *prefs.Store[prefs.AppPreferences]
	ntfPrefs *prefs.Store[prefs.NotificationPreferences]
	flags    *prefs.Flags
	appVals  prefs.AppPreferences

	status    string
	statusErr bool
	statusGen int

	sessionsView sessions.Model
	browserView  filebrowser.Model
	logView      logview.Model
	settingsView settings.Model
	authView     authview.Model
	commandView  command.Model
}

func newModel(cfg config.Config, skipAuth bool) *model {
	client := api.NewClient(cfg.Server.URL)

	configDir := config.Dir()
	appStore := prefs.NewStore(
		configDir+"/"+prefs.AppPreferencesFile, prefs.DefaultAppPreferences())
	ntfStore := prefs.NewStore(
		configDir+"/"+prefs.NotificationPreferencesFile, prefs.DefaultNotificationPreferences())
	flags := prefs.NewFlags(configDir + "/" + prefs.FlagsFile)

	tokens := auth.NewTokenStore(config.StateDir())
	if tok, err := tokens.Load(); err == nil && tokens.Valid(tok) {
		client.SetToken(tok.Token)
	}
	keypair, _ := auth.EnsureKeyPair(config.StateDir())
	deviceID, _ := auth.EnsureDeviceID(config.StateDir())

	return &model{
		mode:         viewSessions,
		keys:         DefaultKeyMap(),
		cfg:          cfg,
		client:       client,
		tokens:       tokens,
		keypair:      keypair,
		deviceID:     deviceID,
		skipAuth:     skipAuth,
		notifier:     notify.New(cfg.Ntfy.Topic, cfg.Ntfy.Token, ntfStore),
		appPrefs:     appStore,
		ntfPrefs:     ntfStore,
		flags:        flags,
		appVals:      appStore.Load(),
		sessionsView: sessions.New(client),
		browserView:  filebrowser.New(client),
		logView:      logview.New(client),
		settingsView: settings.New(appStore, ntfStore),
		commandView:  command.New(),
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		m.loadAuthConfig,
		m.tickPoll(),
	)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		first := !m.ready
		m.ready = true
		m.layoutViews()
		if first && !m.flags.Get(prefs.FlagOnboardingComplete) {
			_ = m.flags.Set(prefs.FlagOnboardingComplete, true)
			return m, m.setStatus("Welcome! Press ? for help", false)
		}
		return m, nil

	case AuthConfigLoadedMsg:
		if msg.Err != nil {
			// Server unreachable or auth endpoint missing; keep
			// polling, show the failure.
			return m, tea.Batch(m.loadSessions, m.setStatus(msg.Err.Error(), true))
		}
		if msg.Config.NoAuth || m.skipAuth || m.client.Token() != "" {
			return m, m.loadSessions
		}
		m.mode = viewAuth
		m.authView = authview.New(m.client, msg.Config, m.keypair, m.deviceID)
		m.authView.SetSize(m.width, m.contentHeight())
		return m, m.authView.Focus()

	case authview.SuccessMsg:
		m.client.SetToken(msg.Result.Token)
		if err := m.tokens.Save(&auth.Token{
			Token:    msg.Result.Token,
			UserID:   msg.Result.UserID,
			SavedAt:  time.Now().Unix(),
			ServerID: m.client.BaseURL(),
		}); err != nil {
			return m, tea.Batch(m.loadSessions, m.setStatus("Signed in (token not persisted: "+err.Error()+")", true))
		}
		m.mode = viewSessions
		m.sessionsView.Focus()
		return m, tea.Batch(m.loadSessions, m.setStatus("Signed in", false))

	case authview.Msg:
		var cmd tea.Cmd
		m.authView, cmd = m.authView.Update(msg)
		return m, cmd

	case SessionsLoadedMsg:
		if msg.Err != nil {
			var apiErr *api.APIError
			if errors.As(msg.Err, &apiErr) && apiErr.StatusCode == 401 && m.mode != viewAuth {
				// Token expired or revoked; back to the login panel.
				return m, m.loadAuthConfigAfterLogout()
			}
			return m, m.setStatus("Failed to load sessions", true)
		}
		m.sessionsView.SetSessions(msg.Sessions)
		ids := make([]string, len(msg.Sessions))
		for i, s := range msg.Sessions {
			ids[i] = s.ID
		}
		m.commandView.SetSessionIDs(ids)
		return m, nil

	case PollTickMsg:
		cmds := []tea.Cmd{m.tickPoll()}
		if m.mode != viewAuth {
			cmds = append(cmds, m.loadSessions)
		}
		if m.mode == viewLogs {
			cmds = append(cmds, m.logView.Refresh())
		}
		return m, tea.Batch(cmds...)

	case api.EventMsg:
		return m.handleServerEvent(msg.Event)

	case api.EventsClosedMsg:
		// The poll tick keeps data flowing; the stream retries itself.
		return m, nil

	case sessions.KilledMsg:
		// Optimistic removal already happened inside the view; the
		// refetch converges to server truth.
		return m, tea.Batch(m.loadSessions,
			m.setStatus("Session "+msg.Session.DisplayName()+" removed", false))

	case sessions.KillErrorMsg:
		return m, m.setStatus("Kill failed: "+msg.Err.Error(), true)

	case sessions.CleanupDoneMsg:
		return m, tea.Batch(m.loadSessions, m.setStatus("Exited sessions cleaned up", false))

	case sessions.CleanupErrorMsg:
		return m, m.setStatus("Failed to clean up exited sessions", true)

	case sessions.CopiedMsg:
		return m, m.setStatus("Copied "+msg.Value+" to clipboard", false)

	case sessions.CopyFailedMsg:
		return m, m.setStatus("Clipboard unavailable: "+msg.Err.Error(), true)

	case sessions.Msg:
		var cmd tea.Cmd
		m.sessionsView, cmd = m.sessionsView.Update(msg)
		return m, cmd

	case filebrowser.InsertPathMsg:
		m.mode = m.prevMode
		m.focusCurrentView()
		path := msg.Path
		return m, func() tea.Msg {
			if err := clipboard.WriteAll(path); err != nil {
				return sessions.CopyFailedMsg{Err: err}
			}
			return sessions.CopiedMsg{Value: path}
		}

	case filebrowser.DirectorySelectedMsg:
		m.mode = m.prevMode
		m.focusCurrentView()
		return m, m.setStatus("Selected "+msg.Path, false)

	case filebrowser.CancelMsg:
		m.mode = m.prevMode
		m.focusCurrentView()
		return m, nil

	case filebrowser.Msg:
		var cmd tea.Cmd
		m.browserView, cmd = m.browserView.Update(msg)
		return m, cmd

	case logview.Msg:
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd

	case settings.SavedMsg:
		if msg.Err != nil {
			return m, m.setStatus("Failed to save settings: "+msg.Err.Error(), true)
		}
		return m, m.setStatus("Settings saved", false)

	case AppPreferencesChangedMsg:
		m.appVals = msg.Prefs
		m.settingsView.SetPreferences(msg.Prefs, m.ntfPrefs.Load())
		return m, nil

	case NotificationPreferencesChangedMsg:
		m.settingsView.SetPreferences(m.appVals, msg.Prefs)
		return m, nil

	case command.ExecuteMsg:
		return m.executeCommand(msg.Args)

	case ActionResultMsg:
		if msg.Err != nil {
			m.commandView.SetError(msg.Err)
		} else if msg.Output != "" {
			m.commandView.SetResult(msg.Output)
		}
		return m, m.loadSessions

	case LoggedOutMsg:
		return m, m.loadAuthConfigAfterLogout()

	case StatusExpireMsg:
		if msg.Gen == m.statusGen {
			m.status = ""
		}
		return m, nil

	case tea.KeyPressMsg:
		// If command line has focus, let it handle keys first.
		if m.commandView.Focused() {
			var cmd tea.Cmd
			m.commandView, cmd = m.commandView.Update(msg)
			if !m.commandView.Focused() {
				m.focusCurrentView()
			}
			return m, cmd
		}
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m *model) handleServerEvent(ev api.ServerEvent) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case api.EventBufferActivity:
		return m, m.sessionsView.MarkActivity(ev.SessionID)

	case api.EventSessionStart:
		go m.notifier.SessionStart(ev.Name)
		return m, m.loadSessions

	case api.EventSessionExit:
		code := 0
		if ev.ExitCode != nil {
			code = *ev.ExitCode
		}
		go m.notifier.SessionExit(ev.Name, code)
		return m, m.loadSessions

	case api.EventSessionError:
		go m.notifier.SessionError(ev.Name, ev.Message)
		return m, m.setStatus("Session error: "+ev.Message, true)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.mode == viewAuth {
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.authView, cmd = m.authView.Update(msg)
		return m, cmd
	}

	// The browser is modal and owns its keys entirely.
	if m.mode == viewBrowser {
		var cmd tea.Cmd
		m.browserView, cmd = m.browserView.Update(msg)
		if !m.browserView.Visible() && m.mode == viewBrowser {
			// Closed itself (esc emits CancelMsg, handled above, but
			// the mode flips here too so a dropped msg can't wedge us).
			m.mode = m.prevMode
			m.focusCurrentView()
		}
		return m, cmd
	}

	if m.mode == viewLogs || m.mode == viewSettings {
		switch key {
		case "esc":
			m.mode = m.prevMode
			m.focusCurrentView()
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
		return m.updateActiveView(msg)
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "e":
		m.sessionsView.ToggleHideExited()
		return m, nil

	case "x":
		return m, m.sessionsView.KillSelected()

	case "c":
		return m, m.sessionsView.CleanupExited()

	case "y":
		return m, m.sessionsView.CopySelectedPID()

	case "b":
		return m.openBrowser("", false)

	case "L":
		m.prevMode = m.mode
		m.mode = viewLogs
		m.sessionsView.Blur()
		return m, m.logView.Refresh()

	case "s":
		m.prevMode = m.mode
		m.mode = viewSettings
		m.sessionsView.Blur()
		return m, nil

	case "/":
		m.prevMode = m.mode
		m.sessionsView.Blur()
		return m, m.commandView.Focus()

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "r", "ctrl+l":
		return m, m.loadSessions
	}

	return m.updateActiveView(msg)
}

func (m *model) openBrowser(start string, selectMode bool) (tea.Model, tea.Cmd) {
	m.prevMode = m.mode
	m.mode = viewBrowser
	m.sessionsView.Blur()
	if start == "" {
		start = "~"
		if s := m.sessionsView.SelectedSession(); s != nil && s.WorkingDir != "" {
			start = s.WorkingDir
		}
	}
	return m, m.browserView.Open(start, selectMode)
}

func (m *model) focusCurrentView() {
	switch m.mode {
	case viewSessions:
		m.sessionsView.Focus()
	}
}

func (m *model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case viewSessions:
		m.sessionsView, cmd = m.sessionsView.Update(msg)
	case viewBrowser:
		m.browserView, cmd = m.browserView.Update(msg)
	case viewLogs:
		m.logView, cmd = m.logView.Update(msg)
	case viewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case viewAuth:
		m.authView, cmd = m.authView.Update(msg)
	}
	return m, cmd
}

func (m *model) View() tea.View {
	var v tea.View
	v.AltScreen = true

	if !m.ready {
		v.SetContent("Loading...")
		return v
	}

	if m.showHelp {
		v.SetContent(m.renderHelpOverlay())
		return v
	}

	if m.mode == viewAuth {
		v.SetContent(m.authView.View())
		return v
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	menuHeight := m.commandView.MenuHeight()
	contentHeight := m.height - 3 - menuHeight
	if contentHeight < 5 {
		contentHeight = 5
	}
	m.sessionsView.SetSize(m.width, contentHeight)

	if resultView := m.commandView.ViewResult(); resultView != "" {
		b.WriteString(resultView)
	} else {
		switch m.mode {
		case viewSessions:
			b.WriteString(m.sessionsView.View())
		case viewBrowser:
			b.WriteString(m.browserView.View())
		case viewLogs:
			b.WriteString(m.logView.View())
		case viewSettings:
			b.WriteString(m.settingsView.View())
		}
	}

	b.WriteByte('\n')
	if m.commandView.Focused() {
		b.WriteString(m.commandView.ViewInput())
	} else if m.status != "" {
		if m.statusErr {
			b.WriteString(ui.StyleError.Render(" " + m.status))
		} else {
			b.WriteString(ui.StyleDim.Render(" " + m.status))
		}
	} else {
		b.WriteString(m.renderHelpLine())
	}

	v.SetContent(b.String())
	return v
}

func (m *model) renderHeader() string {
	title := ui.StyleHeader.Render(fmt.Sprintf(" %s ", AppName))
	server := ui.StyleDim.Render(m.client.BaseURL())

	visible := m.sessionsView.Visible()
	running := 0
	for _, s := range visible {
		if s.Status == api.StatusRunning {
			running++
		}
	}
	stats := ui.StyleDim.Render(fmt.Sprintf("sessions: %d   running: %d", len(visible), running))

	parts := []string{title, server, stats}
	if m.sessionsView.HideExited() {
		parts = append(parts, ui.StyleWarn.Render("[hiding exited]"))
	}
	if m.appVals.ShowLogLink {
		parts = append(parts, ui.StyleDim.Render("L logs"))
	}

	sep := ui.StyleDim.Render("   ")
	header := parts[0]
	for _, p := range parts[1:] {
		header = lipgloss.JoinHorizontal(lipgloss.Center, header, sep, p)
	}

	bar := strings.Repeat("━", max(m.width, 1))
	return header + "\n" + ui.StyleDim.Render(bar)
}

func (m *model) renderHelpLine() string {
	var parts []string
	switch m.mode {
	case viewSessions:
		parts = []string{"↑↓ navigate", "x kill", "c cleanup", "e hide exited", "b files", "L logs", "s settings", "/ command", "q quit"}
	case viewLogs:
		parts = []string{"l level", "s source", "/ filter", "C clear", "esc back"}
	case viewSettings:
		parts = []string{"↑↓ navigate", "enter toggle", "esc back"}
	}
	return ui.StyleDim.Render(" " + strings.Join(parts, "  │  "))
}

func (m *model) renderHelpOverlay() string {
	title := ui.StyleHeader.Render(fmt.Sprintf(" %s help ", AppName))
	help := `
  Sessions
    ↑/↓, j/k        Navigate list
    x               Kill running / clean up exited session
    c               Clean up all exited sessions
    e               Toggle the exited filter
    y               Copy selected session's pid

  Views
    b               File browser (enter open, i insert path, d diff)
    L               Log viewer (l level, s source, / filter, C clear)
    s               Settings
    esc             Back

  Command Line
    /               Open command line
    tab             Tab completion
    esc             Close command line

  Other
    r, ctrl+l       Refresh
    ?               Toggle this help
    q, ctrl+c       Quit

  ` + ui.StyleDim.Render("Press ? to close")
	return title + "\n" + help
}

func (m *model) contentHeight() int {
	h := m.height - 3
	if h < 5 {
		h = 5
	}
	return h
}

func (m *model) layoutViews() {
	h := m.contentHeight()
	m.sessionsView.SetSize(m.width, h)
	m.browserView.SetSize(m.width, h)
	m.logView.SetSize(m.width, h)
	m.settingsView.SetSize(m.width, h)
	m.authView.SetSize(m.width, h)
	m.commandView.SetSize(m.width, h)
}

// --- Commands ---

func (m *model) loadAuthConfig() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	cfg, err := auth.Config(ctx, m.client)
	return AuthConfigLoadedMsg{Config: cfg, Err: err}
}

func (m *model) loadAuthConfigAfterLogout() tea.Cmd {
	m.client.SetToken("")
	_ = m.tokens.Delete()
	return m.loadAuthConfig
}

func (m *model) loadSessions() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	list, err := m.client.Sessions(ctx)
	return SessionsLoadedMsg{Sessions: list, Err: err}
}

func (m *model) tickPoll() tea.Cmd {
	return tea.Tick(m.cfg.PollInterval(), func(time.Time) tea.Msg {
		return PollTickMsg{}
	})
}

func (m *model) setStatus(text string, isErr bool) tea.Cmd {
	m.status = text
	m.statusErr = isErr
	m.statusGen++
	gen := m.statusGen
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return StatusExpireMsg{Gen: gen}
	})
}

func (m *model) executeCommand(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, nil
	}
	verb := args[0]
	if !command.Known(verb) {
		m.commandView.SetError(fmt.Errorf("unknown command %q", verb))
		return m, nil
	}

	switch verb {
	case "session":
		if len(args) < 3 {
			m.commandView.SetError(fmt.Errorf("usage: session kill|cleanup <id>"))
			return m, nil
		}
		sub, id := args[1], args[2]
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			var err error
			switch sub {
			case "kill":
				err = client.KillSession(ctx, id)
			case "cleanup":
				err = client.CleanupSession(ctx, id)
			default:
				err = fmt.Errorf("unknown subcommand %q", sub)
			}
			if err != nil {
				return ActionResultMsg{Err: err}
			}
			return ActionResultMsg{Output: "done: session " + sub + " " + id}
		}

	case "cleanup":
		m.commandView.Blur()
		m.focusCurrentView()
		return m, m.sessionsView.CleanupExited()

	case "browse":
		m.commandView.Blur()
		start := ""
		if len(args) > 1 {
			start = args[1]
		}
		return m.openBrowser(start, false)

	case "logs":
		if len(args) > 1 && args[1] == "clear" {
			client := m.client
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
				defer cancel()
				if err := client.ClearLogs(ctx); err != nil {
					return ActionResultMsg{Err: err}
				}
				return ActionResultMsg{Output: "log cleared"}
			}
		}
		m.commandView.Blur()
		m.prevMode = viewSessions
		m.mode = viewLogs
		return m, m.logView.Refresh()

	case "settings":
		m.commandView.Blur()
		m.prevMode = viewSessions
		m.mode = viewSettings
		return m, nil

	case "hide-exited":
		m.sessionsView.ToggleHideExited()
		m.commandView.Blur()
		m.focusCurrentView()
		return m, nil

	case "refresh":
		m.commandView.Blur()
		m.focusCurrentView()
		return m, m.loadSessions

	case "logout":
		m.commandView.Blur()
		return m, func() tea.Msg { return LoggedOutMsg{} }

	case "version":
		m.commandView.SetResult(AppName + " tui " + AppVersion)
		return m, nil

	case "help":
		m.commandView.Blur()
		m.showHelp = true
		return m, nil
	}
	return m, nil
}
