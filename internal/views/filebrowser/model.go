// Package filebrowser is the modal filesystem navigator with a
// preview/diff pane. Listings, previews and diffs are fetched fresh on
// every navigation; nothing is cached beyond the directory currently
// shown.
package filebrowser

import (
	"context"
	"log"
	"path"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/table"
	"charm.land/bubbles/v2/viewport"
	"charm.land/lipgloss/v2"

	"github.com/vibetunnel/tui/internal/api"
	"github.com/vibetunnel/tui/internal/ui"
)

const (
	bannerTimeout  = 5 * time.Second
	requestTimeout = 15 * time.Second
	listWidthFrac  = 0.38
	minListWidth   = 32
)

// FileAPI is the subset of the server client this view drives.
type FileAPI interface {
	Browse(ctx context.Context, path string, showHidden bool, gitFilter string) (api.DirectoryListing, error)
	Preview(ctx context.Context, path string) (api.FilePreview, error)
	Diff(ctx context.Context, path string) (api.FileDiff, error)
}

// Msg marks messages owned by this view.
type Msg interface{ isBrowserMsg() }

// InsertPathMsg asks the app to hand a path to the terminal and close
// the browser.
type InsertPathMsg struct {
	Path string
	Type string // "file" or "directory"
}

// CancelMsg closes the browser without a selection.
type CancelMsg struct{}

// DirectorySelectedMsg reports the directory chosen in select mode.
type DirectorySelectedMsg struct{ Path string }

// previewState is the per-selection sub-view lifecycle:
// none → loading → preview ⇄ diff.
type previewState int

const (
	previewNone previewState = iota
	previewLoading
	previewShowing
	previewDiff
)

// internal messages
type listingLoadedMsg struct {
	listing api.DirectoryListing
	err     error
}
type previewLoadedMsg struct {
	path    string
	preview api.FilePreview
	err     error
}
type diffLoadedMsg struct {
	path string
	diff api.FileDiff
	err  error
}
type bannerExpireMsg struct{ gen int }

func (listingLoadedMsg) isBrowserMsg() {}
func (previewLoadedMsg) isBrowserMsg() {}
func (diffLoadedMsg) isBrowserMsg()    {}
func (bannerExpireMsg) isBrowserMsg()  {}

// Model is the file browser.
type Model struct {
	client  FileAPI
	list    table.Model
	content viewport.Model

	listing    api.DirectoryListing
	entries    []api.FileInfo // rows, including the ".." pseudo-entry
	hasParent  bool
	state      previewState
	selected   string // path of the previewed file
	shown      string // path whose content is in the viewport
	selGit     string // git status of the previewed file
	showHidden bool
	gitFilter  string // "all" or "changed"

	// select-directory mode: enter on "." emits DirectorySelectedMsg
	// instead of inserting file paths.
	selectMode bool

	banner    string
	bannerGen int

	width   int
	height  int
	listW   int
	visible bool
}

// New creates the file browser.
func New(client FileAPI) Model {
	cols := []table.Column{
		{Title: " ", Width: 1},
		{Title: "name", Width: 28},
		{Title: "size", Width: 8},
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

	vp := viewport.New(viewport.WithWidth(60), viewport.WithHeight(10))

	return Model{
		client:    client,
		list:      t,
		content:   vp,
		gitFilter: "all",
	}
}

// Open shows the browser rooted at startPath.
func (m *Model) Open(startPath string, selectMode bool) tea.Cmd {
	m.visible = true
	m.selectMode = selectMode
	m.state = previewNone
	m.selected = ""
	m.shown = ""
	m.content.SetContent("")
	return m.browse(startPath)
}

// Close hides the browser.
func (m *Model) Close() {
	m.visible = false
}

// Visible reports whether the browser is shown.
func (m *Model) Visible() bool { return m.visible }

// SetSize updates dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h

	listW := int(float64(w) * listWidthFrac)
	if listW < minListWidth {
		listW = minListWidth
	}
	m.listW = listW
	m.list.SetWidth(listW)
	m.list.SetHeight(h - 2)
	m.content.SetWidth(w - listW - 3)
	m.content.SetHeight(h - 2)

	nameW := listW - 1 - 8 - 6
	if nameW < 12 {
		nameW = 12
	}
	cols := m.list.Columns()
	if len(cols) == 3 {
		cols[1].Width = nameW
		m.list.SetColumns(cols)
	}
}

// JoinPath builds the absolute path for an entry name under dir,
// adding the separating slash only when dir doesn't already end in
// one. An empty dir falls back to name as-is (degraded mode when the
// backend didn't report an absolute path).
func JoinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listingLoadedMsg:
		if msg.err != nil {
			log.Printf("filebrowser: browse: %v", msg.err)
			return m, m.showBanner("Failed to load directory")
		}
		// Wholesale replace; no merge with the prior listing.
		m.listing = msg.listing
		m.rebuildRows()
		m.state = previewNone
		m.selected = ""
		m.shown = ""
		m.content.SetContent("")
		return m, nil

	case previewLoadedMsg:
		if msg.path != m.selected {
			// Selection moved on while the fetch was in flight.
			return m, nil
		}
		if msg.err != nil {
			log.Printf("filebrowser: preview %s: %v", msg.path, msg.err)
			m.state = previewNone
			return m, m.showBanner("Failed to load preview")
		}
		samePath := msg.path == m.shown
		m.state = previewShowing
		m.content.SetContent(m.renderPreview(msg.preview))
		if !samePath {
			m.content.GotoTop()
		}
		m.shown = msg.path
		return m, nil

	case diffLoadedMsg:
		if msg.err != nil {
			log.Printf("filebrowser: diff %s: %v", msg.path, msg.err)
			return m, m.showBanner("Failed to load diff")
		}
		if msg.path != m.selected {
			// Selection moved on while the fetch was in flight.
			return m, nil
		}
		m.state = previewDiff
		if msg.diff.HasDiff {
			m.content.SetContent(m.renderDiff(msg.diff))
		} else {
			m.content.SetContent(ui.StyleDim.Render("No changes"))
		}
		m.content.GotoTop()
		return m, nil

	case bannerExpireMsg:
		if msg.gen == m.bannerGen {
			m.banner = ""
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.visible = false
		return m, func() tea.Msg { return CancelMsg{} }

	case "enter":
		entry := m.selectedEntry()
		if entry == nil {
			return m, nil
		}
		if entry.Name == ".." {
			return m, m.browse(parentPath(m.listing.Path))
		}
		if entry.IsDir() {
			return m, m.browse(entry.Path)
		}
		return m, m.loadPreview(*entry)

	case "i":
		entry := m.selectedEntry()
		if entry == nil || entry.Name == ".." {
			return m, nil
		}
		p := JoinPath(m.listing.AbsolutePath, entry.Name)
		if m.listing.AbsolutePath == "" {
			p = entry.Path
		}
		m.visible = false
		typ := entry.Type
		return m, func() tea.Msg { return InsertPathMsg{Path: p, Type: typ} }

	case "s":
		if m.selectMode {
			dir := m.listing.AbsolutePath
			if dir == "" {
				dir = m.listing.Path
			}
			m.visible = false
			return m, func() tea.Msg { return DirectorySelectedMsg{Path: dir} }
		}
		return m, nil

	case "d":
		return m.toggleDiff()

	case ".":
		m.showHidden = !m.showHidden
		return m, m.browse(m.listing.Path)

	case "g":
		if m.gitFilter == "all" {
			m.gitFilter = "changed"
		} else {
			m.gitFilter = "all"
		}
		return m, m.browse(m.listing.Path)

	case "j", "down", "k", "up", "pgdown", "pgup", "home", "end":
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case "J", "K":
		// shift-scroll the preview pane
		var cmd tea.Cmd
		m.content, cmd = m.content.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// toggleDiff flips between preview and diff. Only meaningful when the
// previewed file has a git status other than unchanged. Toggling back
// re-issues a preview load rather than reusing stale content.
func (m Model) toggleDiff() (Model, tea.Cmd) {
	if m.selected == "" {
		return m, nil
	}
	if m.state == previewDiff {
		entry := api.FileInfo{Path: m.selected, Type: "file", GitStatus: m.selGit}
		return m, m.loadPreview(entry)
	}
	if m.state != previewShowing {
		return m, nil
	}
	if m.selGit == "" || m.selGit == "unchanged" {
		return m, nil
	}
	p := m.selected
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		d, err := client.Diff(ctx, p)
		return diffLoadedMsg{path: p, diff: d, err: err}
	}
}

// View renders the browser.
func (m Model) View() string {
	header := ui.StyleAccent.Render(" File Browser  ") +
		ui.StyleDim.Render(m.displayPath())
	if m.showHidden {
		header += ui.StyleDim.Render("  [hidden]")
	}
	if m.gitFilter == "changed" {
		header += ui.StyleWarn.Render("  [changed only]")
	}
	if m.banner != "" {
		header += "  " + ui.StyleError.Render(m.banner)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.list.View(),
		ui.StylePreviewBorder.
			Width(m.width-m.listW-3).
			Height(m.height-2).
			Render(m.contentView()),
	)

	help := ui.StyleDim.Render(" enter open  i insert path  d diff  . hidden  g git filter  esc close")
	return header + "\n" + body + "\n" + help
}

func (m Model) contentView() string {
	switch m.state {
	case previewLoading:
		return ui.StyleDim.Render("Loading preview...")
	case previewNone:
		return ui.StyleDim.Render("Select a file to preview")
	}
	return m.content.View()
}

func (m Model) displayPath() string {
	if m.listing.AbsolutePath != "" {
		return m.listing.AbsolutePath
	}
	return m.listing.Path
}

// --- internals ---

func (m *Model) selectedEntry() *api.FileInfo {
	idx := m.list.Cursor()
	if idx >= 0 && idx < len(m.entries) {
		return &m.entries[idx]
	}
	return nil
}

func (m *Model) browse(path string) tea.Cmd {
	client := m.client
	hidden := m.showHidden
	filter := m.gitFilter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		listing, err := client.Browse(ctx, path, hidden, filter)
		return listingLoadedMsg{listing: listing, err: err}
	}
}

// loadPreview always resets the diff toggle; selecting a file lands on
// its preview, never directly on a diff.
func (m *Model) loadPreview(entry api.FileInfo) tea.Cmd {
	m.state = previewLoading
	m.selected = entry.Path
	m.selGit = entry.GitStatus
	client := m.client
	p := entry.Path
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		preview, err := client.Preview(ctx, p)
		return previewLoadedMsg{path: p, preview: preview, err: err}
	}
}

func (m *Model) showBanner(text string) tea.Cmd {
	m.banner = text
	m.bannerGen++
	gen := m.bannerGen
	return tea.Tick(bannerTimeout, func(time.Time) tea.Msg {
		return bannerExpireMsg{gen: gen}
	})
}

func (m *Model) rebuildRows() {
	m.entries = m.entries[:0]
	m.hasParent = m.listing.Path != "/" && m.listing.Path != ""
	if m.hasParent {
		m.entries = append(m.entries, api.FileInfo{Name: "..", Type: "directory"})
	}
	m.entries = append(m.entries, m.listing.Files...)

	rows := make([]table.Row, len(m.entries))
	for i, f := range m.entries {
		name := f.Name
		size := ""
		if f.IsDir() {
			name += "/"
		} else {
			size = ui.FormatBytes(f.Size)
		}
		rows[i] = table.Row{ui.GitStatusIcon(f.GitStatus), name, size}
	}
	m.list.SetRows(rows)
	m.list.SetCursor(0)
}

func (m Model) renderPreview(p api.FilePreview) string {
	switch p.Type {
	case "image":
		return ui.StyleDim.Render("Image preview not supported in the terminal.\n") +
			ui.StyleDim.Render("Size: ") + ui.FormatBytes(p.Size)
	case "binary":
		return ui.StyleDim.Render("Binary file.\n") +
			ui.StyleDim.Render("Size: ") + ui.FormatBytes(p.Size)
	default:
		return p.Content
	}
}

func (m Model) renderDiff(d api.FileDiff) string {
	var b strings.Builder
	for _, line := range strings.Split(d.Diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			b.WriteString(ui.StyleRunning.Render(line))
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			b.WriteString(ui.StyleError.Render(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(ui.StyleAccent.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func parentPath(p string) string {
	parent := path.Dir(p)
	if parent == "" {
		return "/"
	}
	return parent
}
