// Package tui shows the active time entry indicator full-screen.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sysgd-timetrack/internal/timetrack"
)

type snapshotMsg timetrack.Snapshot

type closedMsg struct{}

// Model renders every store update. It reads the store only through its
// subscription channel.
type Model struct {
	indicator *timetrack.Indicator
	updates   <-chan timetrack.Snapshot
	view      timetrack.View
	present   bool
	activated int
	width     int
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "24", Dark: "81"})
	emptyStyle = lipgloss.NewStyle().Faint(true)
	helpStyle  = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

// New returns a model fed by updates, usually from Store.Subscribe.
func New(indicator *timetrack.Indicator, updates <-chan timetrack.Snapshot) Model {
	return Model{indicator: indicator, updates: updates}
}

func waitForSnapshot(ch <-chan timetrack.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.view, m.present = timetrack.ComposeView(timetrack.Snapshot(msg))
		return m, waitForSnapshot(m.updates)
	case closedMsg:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "enter", " ":
			if m.present && m.indicator != nil && m.indicator.Activate() {
				m.activated++
			}
			return m, nil
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SYSGD"))
	b.WriteString("\n\n")
	if m.present {
		b.WriteString(timetrack.RenderView(m.view))
	} else {
		b.WriteString(emptyStyle.Render("Sin registro activo"))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: detalles  q: salir"))
	b.WriteString("\n")
	return b.String()
}
