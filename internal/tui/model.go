// Package tui is the terminal front end for a tracker session.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nse-tracker/internal/market"
	"nse-tracker/internal/tracker"
)

const intervalStep = 5

// Controller is the part of tracker.Session the terminal drives.
type Controller interface {
	SetSymbols(raw string) []market.Symbol
	SetInterval(sec int) error
	Start() (string, bool)
	Stop() bool
	View() tracker.View
}

type focus int

const (
	focusBoard focus = iota
	focusSymbols
)

// viewMsg carries a view pushed by the refresh loop.
type viewMsg tracker.View

type Model struct {
	ctrl  Controller
	views <-chan tracker.View

	table table.Model
	field textinput.Model
	view  tracker.View
	focus focus
	err   error
	width int
}

func New(ctrl Controller, views <-chan tracker.View) Model {
	v := ctrl.View()

	field := textinput.New()
	field.Prompt = "Symbols: "
	field.Placeholder = tracker.DefaultSymbols
	field.CharLimit = 512
	field.SetValue(market.JoinSymbols(v.Board.Symbols()))

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	m := Model{
		ctrl:  ctrl,
		views: views,
		table: t,
		field: field,
		focus: focusBoard,
	}
	m.setView(v)
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForView(m.views)
}

func waitForView(views <-chan tracker.View) tea.Cmd {
	if views == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-views
		if !ok {
			return nil
		}
		return viewMsg(v)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		m.setView(tracker.View(msg))
		return m, waitForView(m.views)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(msg.Height-9, 3))
		m.field.Width = max(msg.Width-len(m.field.Prompt)-2, 10)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.ctrl.Stop()
			return m, tea.Quit
		}
		if m.focus == focusSymbols {
			return m.updateSymbols(msg)
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m Model) updateSymbols(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.ctrl.SetSymbols(m.field.Value())
		m.setView(m.ctrl.View())
		m.field.SetValue(market.JoinSymbols(m.view.Board.Symbols()))
		return m.focusOn(focusBoard), nil
	case "esc":
		m.field.SetValue(market.JoinSymbols(m.view.Board.Symbols()))
		return m.focusOn(focusBoard), nil
	case "tab":
		return m.focusOn(focusBoard), nil
	}
	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.ctrl.Stop()
		return m, tea.Quit
	case "tab", "e":
		m = m.focusOn(focusSymbols)
		return m, textinput.Blink
	case "+", "=", "right", "l":
		return m.stepInterval(intervalStep), nil
	case "-", "_", "left", "h":
		return m.stepInterval(-intervalStep), nil
	case "s", " ":
		if m.view.State == tracker.StateRunning {
			m.ctrl.Stop()
		} else {
			m.ctrl.Start()
		}
		m.setView(m.ctrl.View())
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) stepInterval(delta int) Model {
	next := tracker.ClampInterval(m.view.IntervalSec + delta)
	m.err = m.ctrl.SetInterval(next)
	m.setView(m.ctrl.View())
	return m
}

func (m Model) focusOn(f focus) Model {
	m.focus = f
	if f == focusSymbols {
		m.field.Focus()
		m.table.Blur()
	} else {
		m.field.Blur()
		m.table.Focus()
	}
	return m
}

func (m *Model) setView(v tracker.View) {
	m.view = v
	rows := make([]table.Row, len(v.Board.Rows))
	for i, r := range v.Board.Rows {
		rows[i] = table.Row{fmt.Sprint(i + 1), string(r.Symbol), r.Quote.String()}
	}
	m.table.SetRows(rows)
}

func columns(width int) []table.Column {
	quoteWidth := max(width-4-16-8, 16)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Symbol", Width: 16},
		{Title: "Last Price", Width: quoteWidth},
	}
}
