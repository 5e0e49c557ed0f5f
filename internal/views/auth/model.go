// Package auth is the login panel: password or device-key login,
// driven by the server's auth configuration.
package auth

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/textinput"

	"github.com/vibetunnel/tui/internal/api"
	"github.com/vibetunnel/tui/internal/auth"
	"github.com/vibetunnel/tui/internal/ui"
)

const requestTimeout = 15 * time.Second

// Msg marks messages owned by this view.
type Msg interface{ isAuthMsg() }

// SuccessMsg is emitted once login succeeds.
type SuccessMsg struct {
	Result auth.Result
}

type loginResultMsg struct {
	result auth.Result
	err    error
}

func (loginResultMsg) isAuthMsg() {}

type method int

const (
	methodPassword method = iota
	methodKey
)

// Model is the auth panel.
type Model struct {
	client   *api.Client
	cfg      api.AuthConfig
	keypair  *auth.KeyPair
	deviceID string

	input   textinput.Model
	method  method
	busy    bool
	errText string

	width  int
	height int
}

// New creates the auth panel. keypair may be nil when key login is
// unavailable.
func New(client *api.Client, cfg api.AuthConfig, keypair *auth.KeyPair, deviceID string) Model {
	ti := textinput.New()
	ti.Prompt = "password: "
	ti.EchoMode = textinput.EchoPassword
	ti.CharLimit = 256

	m := Model{
		client:   client,
		cfg:      cfg,
		keypair:  keypair,
		deviceID: deviceID,
		input:    ti,
	}
	if cfg.DisallowUserPassword {
		m.method = methodKey
	}
	return m
}

// Focus activates the password input.
func (m *Model) Focus() tea.Cmd {
	if m.method == methodPassword {
		return m.input.Focus()
	}
	return nil
}

// SetSize updates dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.SetWidth(min(w-6, 60))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			// Stay on the panel; show the failure inline.
			m.errText = msg.err.Error()
			return m, nil
		}
		result := msg.result
		return m, func() tea.Msg { return SuccessMsg{Result: result} }

	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter":
			return m, m.submit()
		case "tab":
			return m.switchMethod()
		}
		if m.method == methodPassword {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) switchMethod() (Model, tea.Cmd) {
	keyAvailable := m.cfg.EnableSSHKeys && m.keypair != nil
	passwordAvailable := !m.cfg.DisallowUserPassword
	if !keyAvailable || !passwordAvailable {
		return m, nil
	}
	if m.method == methodPassword {
		m.method = methodKey
		m.input.Blur()
		return m, nil
	}
	m.method = methodPassword
	return m, m.input.Focus()
}

func (m *Model) submit() tea.Cmd {
	if m.busy {
		return nil
	}

	client, deviceID := m.client, m.deviceID
	switch m.method {
	case methodPassword:
		password := strings.TrimSpace(m.input.Value())
		if password == "" {
			m.errText = "Password is required"
			return nil
		}
		m.busy = true
		m.errText = ""
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			res, err := auth.LoginPassword(ctx, client, password, deviceID)
			return loginResultMsg{result: res, err: err}
		}

	case methodKey:
		kp := m.keypair
		if kp == nil {
			m.errText = "No device key available"
			return nil
		}
		m.busy = true
		m.errText = ""
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			res, err := auth.LoginKey(ctx, client, kp, deviceID)
			return loginResultMsg{result: res, err: err}
		}
	}
	return nil
}

// View renders the login panel.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(ui.StyleHeader.Render(" VibeTunnel "))
	b.WriteString("\n\n")
	b.WriteString(ui.StyleDim.Render(" Sign in to ") + m.client.BaseURL() + "\n\n")

	switch m.method {
	case methodPassword:
		b.WriteString(" " + m.input.View() + "\n")
	case methodKey:
		b.WriteString(" Log in with this device's key")
		if m.keypair != nil {
			b.WriteString(ui.StyleDim.Render("  (" + ui.Truncate(m.keypair.PublicKeyBase64(), 24) + ")"))
		}
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString("\n " + ui.StyleDim.Render("Signing in..."))
	}
	if m.errText != "" {
		b.WriteString("\n " + ui.StyleError.Render(m.errText))
	}

	b.WriteString("\n\n " + ui.StyleDim.Render("enter sign in"))
	if m.cfg.EnableSSHKeys && !m.cfg.DisallowUserPassword && m.keypair != nil {
		b.WriteString(ui.StyleDim.Render("  tab switch method"))
	}
	return b.String()
}
