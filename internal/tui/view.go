package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"nse-tracker/internal/tracker"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("25")).Padding(0, 1)
	runningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	idleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sliderOn     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	sliderOff    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	boardBorder  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("NSE quotes"))
	b.WriteString(" ")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	b.WriteString(m.field.View())
	b.WriteString("\n")
	b.WriteString(boardBorder.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(m.slider())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(m.help()))
	return b.String()
}

func (m Model) statusLine() string {
	var state string
	if m.view.State == tracker.StateRunning {
		state = runningStyle.Render("RUNNING")
	} else {
		state = idleStyle.Render("IDLE")
	}
	if m.view.UpdatedAt.IsZero() {
		return state
	}
	return state + dimStyle.Render(fmt.Sprintf("  tick %d  updated %s", m.view.Tick, m.view.UpdatedAt.Format("15:04:05")))
}

// slider draws the refresh interval as one notch per step between the bounds.
func (m Model) slider() string {
	notches := (tracker.MaxIntervalSec-tracker.MinIntervalSec)/intervalStep + 1
	filled := (m.view.IntervalSec-tracker.MinIntervalSec)/intervalStep + 1
	filled = min(max(filled, 0), notches)

	bar := sliderOn.Render(strings.Repeat("━", filled)) + sliderOff.Render(strings.Repeat("━", notches-filled))
	return fmt.Sprintf("Interval %2ds  %ds %s %ds", m.view.IntervalSec, tracker.MinIntervalSec, bar, tracker.MaxIntervalSec)
}

func (m Model) help() string {
	if m.focus == focusSymbols {
		return "enter apply • esc cancel • tab back to board"
	}
	return "tab edit symbols • +/- interval • s start/stop • q quit"
}
