package experiments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	expdto "gametune/internal/modules/experiment/dto"
	"gametune/internal/ui/theme"
)

type Port interface {
	List(ctx context.Context) ([]expdto.ExperimentOutput, error)
	Dashboard(ctx context.Context, experimentID string) (expdto.DashboardOutput, error)
	StopExperiment(ctx context.Context, experimentID, reason string) (expdto.ResultOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type ListLoadedMsg struct {
	Experiments []expdto.ExperimentOutput
	Err         error
}

type DashboardLoadedMsg struct {
	Dashboard expdto.DashboardOutput
	Err       error
}

type StoppedMsg struct {
	Result expdto.ResultOutput
	Err    error
}

// RefreshMsg is scheduled every poll interval.
type RefreshMsg struct{}

// ─── list item ───────────────────────────────────────────────────────────────

type experimentItem struct {
	exp expdto.ExperimentOutput
}

func (i experimentItem) Title() string { return i.exp.ID }
func (i experimentItem) Description() string {
	state := "stopped"
	if i.exp.Active {
		state = "active"
	}
	return fmt.Sprintf("%s · %d players", state, i.exp.ParticipantCount)
}
func (i experimentItem) FilterValue() string { return i.exp.ID + " " + i.exp.Name }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port      Port
	list      list.Model
	detail    viewport.Model
	spinner   spinner.Model
	interval  time.Duration
	focus     string
	dashboard expdto.DashboardOutput
	loaded    bool
	loading   bool
	err       error
	width     int
	height    int
}

// New builds the view. focus preselects an experiment id; interval <= 0
// disables polling.
func New(port Port, focus string, interval time.Duration) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Green).BorderForeground(theme.Green)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Green)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Experiments"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Green)

	return Model{
		port:     port,
		list:     l,
		detail:   vp,
		spinner:  sp,
		interval: interval,
		focus:    focus,
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadListCmd(), m.spinner.Tick, m.scheduleRefresh())
}

// Filtering reports whether the list filter is capturing keys.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Selected returns the experiment whose dashboard is shown.
func (m Model) Selected() string {
	return m.focus
}

func (m Model) Dashboard() (expdto.DashboardOutput, bool) {
	return m.dashboard, m.loaded
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case ListLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.list.Title = "Experiments: " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, len(msg.Experiments))
		selected := -1
		for i, e := range msg.Experiments {
			items[i] = experimentItem{exp: e}
			if e.ID == m.focus {
				selected = i
			}
		}
		cmds = append(cmds, m.list.SetItems(items))
		if selected >= 0 {
			m.list.Select(selected)
		}
		if m.focus == "" && len(msg.Experiments) > 0 {
			m.focus = msg.Experiments[0].ID
		}
		if m.focus != "" {
			cmds = append(cmds, m.loadDashboardCmd(m.focus))
		}

	case DashboardLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
		} else if msg.Dashboard.Experiment.ID == m.focus {
			m.err = nil
			m.dashboard = msg.Dashboard
			m.loaded = true
		}
		m.detail.SetContent(m.renderDashboard())

	case StoppedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.detail.SetContent(m.renderDashboard())
			return m, nil
		}
		return m, m.loadListCmd()

	case RefreshMsg:
		cmds = append(cmds, m.loadListCmd(), m.scheduleRefresh())

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if msg.String() == "enter" && !m.Filtering() {
			if item, ok := m.list.SelectedItem().(experimentItem); ok {
				m.focus = item.exp.ID
				m.loaded = false
				cmds = append(cmds, m.loadDashboardCmd(m.focus))
			}
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)

		var vCmd tea.Cmd
		m.detail, vCmd = m.detail.Update(msg)
		cmds = append(cmds, vCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading experiments…")
	}

	listW := m.width * 30 / 100
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := theme.Pane.
		Padding(0).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Stop ends the focused experiment.
func (m Model) Stop(reason string) tea.Cmd {
	id := m.focus
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		out, err := m.port.StopExperiment(context.Background(), id, reason)
		return StoppedMsg{Result: out, Err: err}
	}
}

// Focus switches the dashboard to id.
func (m Model) Focus(id string) (Model, tea.Cmd) {
	m.focus = id
	m.loaded = false
	m.err = nil
	m.detail.SetContent(m.renderDashboard())
	return m, m.loadDashboardCmd(id)
}

// Refresh reloads the list and the focused dashboard right away.
func (m Model) Refresh() tea.Cmd {
	return m.loadListCmd()
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 30 / 100
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
	m.detail.SetContent(m.renderDashboard())
}

func (m Model) scheduleRefresh() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return RefreshMsg{} })
}

func (m Model) loadListCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.List(context.Background())
		return ListLoadedMsg{Experiments: out, Err: err}
	}
}

func (m Model) loadDashboardCmd(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Dashboard(context.Background(), id)
		return DashboardLoadedMsg{Dashboard: out, Err: err}
	}
}

func (m Model) renderDashboard() string {
	if m.err != nil {
		return theme.Bad.Render("error: " + m.err.Error())
	}
	if !m.loaded {
		return theme.Muted.Render("Select an experiment and press enter")
	}
	return Render(m.dashboard)
}

// Render formats a dashboard for the terminal.
func Render(d expdto.DashboardOutput) string {
	var sb strings.Builder
	exp := d.Experiment
	state := theme.Good.Render("● active")
	if !exp.Active {
		state = theme.Muted.Render("■ stopped")
	}
	sb.WriteString(theme.Title.Render(exp.Name) + "  " + state + "\n")
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("%s  %s → %s  games: %s",
		exp.ID, exp.StartAt.Format("2006-01-02"), exp.EndAt.Format("2006-01-02"), strings.Join(exp.TargetGames, ", "))) + "\n")
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("participants %d / %d  samples %d  data quality %s",
		exp.ParticipantCount, exp.SampleSize, d.TotalSamples, d.DataQuality)) + "\n\n")

	sb.WriteString(theme.Hot.Render("Variants") + "\n")
	fmt.Fprintf(&sb, "%-10s %7s %8s %9s %9s %11s  %s\n", "variant", "weight", "samples", "accuracy", "complete", "engagement", "trend")
	for _, v := range d.Variants {
		fmt.Fprintf(&sb, "%-10s %7.1f %8d %9.1f %8.0f%% %11.1f  %s\n",
			v.VariantID, v.Weight, v.Samples, v.Accuracy, v.Completion*100, v.Engagement, theme.Trend(v.Trend).Render(v.Trend))
	}

	sb.WriteString("\n" + theme.Hot.Render("Analysis") + "\n")
	if len(d.Results) == 0 {
		sb.WriteString(theme.Muted.Render("  not enough data yet") + "\n")
	}
	for _, r := range d.Results {
		winner := r.Winner
		if winner == "" {
			winner = "none"
		}
		line := fmt.Sprintf("  %-17s p=%.2f  confidence %.0f%%  effect %.2f  winner %s  → %s",
			r.Metric, r.PValue, r.Confidence*100, r.EffectSize, winner, r.Recommendation.Action)
		if r.Winner != "" {
			line = theme.Good.Render(line)
		}
		sb.WriteString(line + "\n")
	}

	if exp.Result != nil {
		sb.WriteString("\n" + theme.Hot.Render("Result") + "\n")
		sb.WriteString(fmt.Sprintf("  stopped %s: %s\n", exp.Result.StoppedAt.Format(time.RFC3339), exp.Result.Reason))
	}

	if len(d.Alerts) > 0 {
		sb.WriteString("\n" + theme.Hot.Render("Alerts") + "\n")
		for i := len(d.Alerts) - 1; i >= 0; i-- {
			a := d.Alerts[i]
			sb.WriteString(theme.Severity(a.Severity).Render(fmt.Sprintf("  %s [%s] %s",
				a.RaisedAt.Format("15:04:05"), a.Severity, a.Message)) + "\n")
		}
	}
	sb.WriteString("\n" + theme.Muted.Render("updated "+d.GeneratedAt.Format(time.RFC3339)))
	return sb.String()
}
