package games

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	diffdto "gametune/internal/modules/difficulty/dto"
	"gametune/internal/ui/theme"
)

type Port interface {
	ListGames(ctx context.Context) ([]diffdto.GameOutput, error)
}

type LoadedMsg struct {
	Games []diffdto.GameOutput
	Err   error
}

type gameItem struct {
	game diffdto.GameOutput
}

func (i gameItem) Title() string       { return i.game.ID }
func (i gameItem) Description() string { return i.game.Name }
func (i gameItem) FilterValue() string { return i.game.ID }

// Model shows the catalog: base parameters and adaptive rules per game.
type Model struct {
	port   Port
	list   list.Model
	detail viewport.Model
	width  int
	height int
}

func New(port Port) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Games"
	l.Styles.Title = theme.Title
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)
	return Model{port: port, list: l, detail: vp}
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.ListGames(context.Background())
		return LoadedMsg{Games: out, Err: err}
	}
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listW := m.width * 30 / 100
		m.list.SetSize(listW, m.height)
		m.detail.Width = m.width - listW - 4
		m.detail.Height = m.height - 4
	case LoadedMsg:
		if msg.Err != nil {
			m.list.Title = "Games: " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, len(msg.Games))
		for i, g := range msg.Games {
			items[i] = gameItem{game: g}
		}
		cmds = append(cmds, m.list.SetItems(items))
		if len(msg.Games) > 0 {
			m.detail.SetContent(renderGame(msg.Games[0]))
		}
	}

	var lCmd tea.Cmd
	m.list, lCmd = m.list.Update(msg)
	cmds = append(cmds, lCmd)
	if item, ok := m.list.SelectedItem().(gameItem); ok {
		m.detail.SetContent(renderGame(item.game))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	listW := m.width * 30 / 100
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := theme.Pane.Padding(0).Width(m.width - listW - 2).Height(m.height - 2).Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

func renderGame(g diffdto.GameOutput) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(g.Name) + "\n\n")
	p := g.Base
	fmt.Fprintf(&sb, "problem count      %d\n", p.ProblemCount)
	fmt.Fprintf(&sb, "time limit         %d ms\n", p.TimeLimitMS)
	fmt.Fprintf(&sb, "hint availability  %.0f\n", p.HintAvailability)
	fmt.Fprintf(&sb, "retry limit        %d\n", p.RetryLimit)
	fmt.Fprintf(&sb, "concept density    %.1f\n", p.ConceptDensity)
	fmt.Fprintf(&sb, "vocabulary         %s\n", p.Content.VocabularyLevel)
	fmt.Fprintf(&sb, "max step           %.0f%%\n", p.Adaptive.MaxAdjustmentStep*100)
	sb.WriteString("\n" + theme.Hot.Render("Adaptive rules") + "\n")
	fmt.Fprintf(&sb, "success window     %d sessions\n", g.SuccessRateWindow)
	fmt.Fprintf(&sb, "target band        %.0f%% to %.0f%%\n", g.MinSuccessRate, g.MaxSuccessRate)
	fmt.Fprintf(&sb, "cooldown           %d sessions\n", g.CooldownPeriod)
	if len(g.Levels) > 0 {
		levels := make([]string, len(g.Levels))
		for i, l := range g.Levels {
			levels[i] = fmt.Sprint(l)
		}
		sb.WriteString(theme.Muted.Render("\nlevel tables: "+strings.Join(levels, ", ")) + "\n")
	}
	return sb.String()
}
