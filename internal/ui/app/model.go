package app

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	diffdto "gametune/internal/modules/difficulty/dto"
	expdto "gametune/internal/modules/experiment/dto"
	"gametune/internal/ui/components"
	"gametune/internal/ui/theme"
	experimentsview "gametune/internal/ui/views/experiments"
	gamesview "gametune/internal/ui/views/games"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type ExperimentPort interface {
	List(ctx context.Context) ([]expdto.ExperimentOutput, error)
	Dashboard(ctx context.Context, experimentID string) (expdto.DashboardOutput, error)
	StopExperiment(ctx context.Context, experimentID, reason string) (expdto.ResultOutput, error)
}

type GamePort interface {
	ListGames(ctx context.Context) ([]diffdto.GameOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabExperiments tabID = iota
	tabGames
	tabCount
)

var tabLabels = [tabCount]string{"Experiments", "Games"}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Enter   key.Binding
	Refresh key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open dashboard")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Enter, k.Refresh},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model behind `experiment watch`. It owns tab
// routing, the help overlay and the command palette; data comes from ports.
type Model struct {
	expView   experimentsview.Model
	gamesView gamesview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// NewModel builds the dashboard. focus preselects an experiment.
func NewModel(experiments ExperimentPort, games GamePort, focus string, interval time.Duration) Model {
	return Model{
		expView:   experimentsview.New(experiments, focus, interval),
		gamesView: gamesview.New(games),
		activeTab: tabExperiments,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.expView.Init(), m.gamesView.Init())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case experimentsview.StoppedMsg:
		if msg.Err != nil {
			m.status = "stop failed: " + msg.Err.Error()
		} else {
			m.status = "stopped " + msg.Result.ExperimentID + ": " + msg.Result.Reason
		}
		var cmd tea.Cmd
		m.expView, cmd = m.expView.Update(msg)
		return m, cmd

	case experimentsview.ListLoadedMsg, experimentsview.DashboardLoadedMsg, experimentsview.RefreshMsg:
		// Polling keeps running while another tab is shown.
		var cmd tea.Cmd
		m.expView, cmd = m.expView.Update(msg)
		if d, ok := m.expView.Dashboard(); ok {
			m.status = "watching " + d.Experiment.ID
		}
		return m, cmd

	case gamesview.LoadedMsg:
		var cmd tea.Cmd
		m.gamesView, cmd = m.gamesView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.subViewFiltering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = m.nextTab(1)
		case "shift+tab":
			m.activeTab = m.nextTab(-1)
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "r":
			if m.activeTab == tabExperiments {
				m.status = "refreshing"
				return m, m.expView.Refresh()
			}
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabExperiments:
		m.expView, tabCmd = m.expView.Update(msg)
	case tabGames:
		m.gamesView, tabCmd = m.gamesView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabGames:
		content = m.gamesView.View()
	default:
		content = m.expView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, 0, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := " " + tabLabels[i] + " "
		if i == m.activeTab {
			parts = append(parts, theme.Hot.Render(label))
		} else {
			parts = append(parts, theme.Muted.Render(label))
		}
	}
	bar := "gametune  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("?:help  tab:switch  r:refresh  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "experiment:stop":
		if m.expView.Selected() == "" {
			m.status = "no experiment selected"
			return m, nil
		}
		reason := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		if reason == "" {
			reason = "stopped from dashboard"
		}
		m.status = "stopping " + m.expView.Selected()
		return m, m.expView.Stop(reason)

	case "experiment:refresh":
		m.activeTab = tabExperiments
		return m, m.expView.Refresh()

	case "experiment:open":
		if len(parts) < 2 {
			m.status = "usage: experiment:open <id>"
			return m, nil
		}
		m.activeTab = tabExperiments
		var cmd tea.Cmd
		m.expView, cmd = m.expView.Focus(parts[1])
		return m, cmd

	case "tab:experiments":
		m.activeTab = tabExperiments
	case "tab:games":
		m.activeTab = tabGames
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabExperiments:
		return m.expView.Filtering()
	case tabGames:
		return m.gamesView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.expView, _ = m.expView.Update(sz)
	m.gamesView, _ = m.gamesView.Update(sz)
}

func (m Model) nextTab(step int) tabID {
	return tabID((int(m.activeTab) + int(tabCount) + step) % int(tabCount))
}
