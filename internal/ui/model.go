package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stationboard/internal/display"
)

// Options configures the board model.
type Options struct {
	Title   string
	Station string
	Units   string
	Theme   string
	// StaleAfter marks the freshness line once departures are older than
	// this. Zero disables the marker.
	StaleAfter time.Duration
	// OnThemeChange is called off the update loop after the user cycles
	// the theme.
	OnThemeChange func(name string)
}

// viewMsg carries a scheduler tick into the program.
type viewMsg display.View

// Model is the Bubble Tea model for the board.
type Model struct {
	opts    Options
	theme   Theme
	styles  Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	view    display.View
	hasView bool

	width  int
	height int
}

// New returns a board model with no view yet.
func New(opts Options) Model {
	theme := GetTheme(opts.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted))
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Faint))

	return Model{
		opts:    opts,
		theme:   theme,
		styles:  theme.Styles(),
		keys:    DefaultKeyMap(),
		help:    h,
		spinner: sp,
		width:   80,
		height:  24,
	}
}

// Init starts the waiting spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles scheduler views, keys and resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		m.view = display.View(msg)
		m.hasView = true
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.CycleTheme):
			m.setTheme(NextTheme(m.theme.Name))
			return m, m.saveTheme()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case spinner.TickMsg:
		// The spinner only shows until the first departures arrive.
		if m.hasView && m.view.HasServices {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setTheme(name string) {
	m.theme = GetTheme(name)
	m.styles = m.theme.Styles()
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted))
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Faint))
}

func (m Model) saveTheme() tea.Cmd {
	save := m.opts.OnThemeChange
	if save == nil {
		return nil
	}
	name := m.theme.Name
	return func() tea.Msg {
		save(name)
		return nil
	}
}

// ThemeName returns the active theme.
func (m Model) ThemeName() string {
	return m.theme.Name
}
