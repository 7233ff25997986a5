// Package tui provides a Bubble Tea terminal user interface for browsing
// and downloading Steam artwork.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hakkai/steam-artwork-downloader/internal/artwork"
	"github.com/hakkai/steam-artwork-downloader/internal/config"
	"github.com/hakkai/steam-artwork-downloader/internal/download"
	httpx "github.com/hakkai/steam-artwork-downloader/internal/http"
	ioutils "github.com/hakkai/steam-artwork-downloader/internal/io"
	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#66C0F4")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateLoading
	StateBrowse
	StateDownloading
	StateComplete
	StateError
)

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	table     table.Model

	settings *config.Settings
	source   download.MetadataSource
	client   *httpx.Client

	appID    model.AppID
	variants []artwork.Variant
	saved    string
	err      error

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// NewModel creates a new TUI model around a metadata source.
func NewModel(source download.MetadataSource, settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "570"
	ti.Focus()
	ti.CharLimit = 10
	ti.Width = 20

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#66C0F4"))

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		settings:  settings,
		source:    source,
		client:    httpx.NewClient(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// MetadataMsg is sent when the app's metadata fetch completes.
	MetadataMsg struct {
		Variants []artwork.Variant
		Err      error
	}

	// DownloadDoneMsg is sent when a single artwork download completes.
	DownloadDoneMsg struct {
		Path string
		Err  error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			switch m.state {
			case StateInput:
				return m, tea.Quit
			case StateLoading, StateDownloading:
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			case StateBrowse:
				m.reset()
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				id, err := strconv.ParseUint(strings.TrimSpace(m.textInput.Value()), 10, 32)
				if err != nil {
					m.state = StateError
					m.err = fmt.Errorf("invalid app id %q", m.textInput.Value())
					return m, nil
				}
				m.appID = model.AppID(id)
				m.state = StateLoading
				return m, tea.Batch(m.fetchMetadata(), m.spinner.Tick)
			}
			if m.state == StateBrowse && len(m.variants) > 0 {
				m.state = StateDownloading
				return m, tea.Batch(m.downloadSelected(), m.spinner.Tick)
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case MetadataMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else if len(msg.Variants) == 0 {
			m.state = StateError
			m.err = fmt.Errorf("app %d has no library artwork", m.appID)
		} else {
			m.variants = msg.Variants
			m.table = newVariantTable(msg.Variants)
			m.state = StateBrowse
		}

	case DownloadDoneMsg:
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.saved = msg.Path
			m.state = StateComplete
		}
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.state == StateBrowse {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Steam Artwork Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Browse and download Steam library artwork"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(subtitleStyle.Render("Enter Steam app ID:"))
		b.WriteString("\n\n")
		b.WriteString(m.textInput.View())
		b.WriteString("\n")
	case StateLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Fetching metadata for app %d...", m.appID)))
		b.WriteString("\n")
	case StateBrowse:
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("App %d: %d artwork variant(s)", m.appID, len(m.variants))))
		b.WriteString("\n\n")
		b.WriteString(m.table.View())
		b.WriteString("\n")
	case StateDownloading:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Downloading..."))
		b.WriteString("\n")
	case StateComplete:
		b.WriteString(boxStyle.Render(successStyle.Render("Saved " + m.saved)))
		b.WriteString("\n")
	case StateError:
		b.WriteString(errorStyle.Render("Error:"))
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: fetch • esc: quit"
	case StateLoading, StateDownloading:
		return "esc: cancel"
	case StateBrowse:
		return "↑/↓: select • enter: download • esc: back"
	case StateComplete, StateError:
		return "r: another app • q: quit"
	}
	return ""
}

func (m *Model) reset() {
	m.state = StateInput
	m.variants = nil
	m.saved = ""
	m.err = nil
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// fetchMetadata loads the app's metadata and lists its artwork variants.
func (m *Model) fetchMetadata() tea.Cmd {
	id := m.appID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.settings.FetchDeadline())
		defer cancel()

		if err := m.source.Fetch(ctx, []model.AppID{id}); err != nil {
			return MetadataMsg{Err: err}
		}
		meta, ok := m.source.Get(id)
		if !ok {
			return MetadataMsg{Err: fmt.Errorf("no metadata for app %d", id)}
		}
		return MetadataMsg{Variants: artwork.ListVariants(m.settings.CDNBaseURL, id, meta)}
	}
}

// downloadSelected downloads the variant under the table cursor.
func (m *Model) downloadSelected() tea.Cmd {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.variants) {
		return func() tea.Msg {
			return DownloadDoneMsg{Err: fmt.Errorf("no variant selected")}
		}
	}
	variant := m.variants[cursor]
	id := m.appID
	return func() tea.Msg {
		name := fmt.Sprintf("%d_%s_%s_%s", id, variant.Type, variant.Variant, variant.Language)
		ext := filepath.Ext(variant.URL)
		if ext == "" {
			ext = ".jpg"
		}
		dest := filepath.Join(m.settings.OutputDir, ioutils.SanitizeFileName(name)+ext)

		if err := m.client.DownloadFile(m.ctx, variant.URL, dest, nil); err != nil {
			return DownloadDoneMsg{Err: err}
		}
		return DownloadDoneMsg{Path: dest}
	}
}

func newVariantTable(variants []artwork.Variant) table.Model {
	columns := []table.Column{
		{Title: "Type", Width: 24},
		{Title: "Variant", Width: 12},
		{Title: "Language", Width: 12},
	}

	rows := make([]table.Row, len(variants))
	for i, v := range variants {
		rows[i] = table.Row{v.Type, v.Variant, v.Language}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows)+1, 12)),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#1B2838")).
		Background(lipgloss.Color("#66C0F4")).
		Bold(true)
	t.SetStyles(styles)

	return t
}

// Run starts the TUI application.
func Run(source download.MetadataSource, settings *config.Settings) error {
	p := tea.NewProgram(NewModel(source, settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
