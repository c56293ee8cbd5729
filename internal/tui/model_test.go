package tui

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nse-tracker/internal/board"
	"nse-tracker/internal/market"
	"nse-tracker/internal/tracker"
)

func newSession(t *testing.T) *tracker.Session {
	t.Helper()
	svc := market.NewService(market.QuoteFetcherFunc(func(_ context.Context, _ market.Symbol) market.Quote {
		return market.Pending
	}), 0, 1, zap.NewNop())
	sess := tracker.NewSession(svc)
	sess.SetSymbols(tracker.DefaultSymbols)
	t.Cleanup(func() { sess.Stop() })
	return sess
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestNew_ShowsPendingRows(t *testing.T) {
	m := New(newSession(t), nil)

	assert.Equal(t, []table.Row{
		{"1", "RELIANCE", "Fetching..."},
		{"2", "TCS", "Fetching..."},
		{"3", "INFY", "Fetching..."},
	}, m.table.Rows())
	assert.Equal(t, "RELIANCE, TCS, INFY", m.field.Value())
}

func TestIntervalKeys_Clamp(t *testing.T) {
	sess := newSession(t)
	m := New(sess, nil)

	m, _ = press(t, m, runes("+"))
	assert.Equal(t, 15, sess.Config().IntervalSec)

	m, _ = press(t, m, runes("-"), runes("-"), runes("-"))
	assert.Equal(t, tracker.MinIntervalSec, sess.Config().IntervalSec)

	for range 20 {
		m, _ = press(t, m, runes("+"))
	}
	assert.Equal(t, tracker.MaxIntervalSec, sess.Config().IntervalSec)
	assert.NoError(t, m.err)
	assert.Contains(t, m.View(), "Interval 60s")
}

func TestStartStopKey(t *testing.T) {
	sess := newSession(t)
	m := New(sess, nil)

	m, _ = press(t, m, runes("s"))
	assert.True(t, sess.Running())
	assert.Equal(t, tracker.StateRunning, m.view.State)
	assert.Contains(t, m.View(), "RUNNING")

	m, _ = press(t, m, runes("s"))
	assert.False(t, sess.Running())
	assert.Equal(t, tracker.StateIdle, m.view.State)
}

func TestEditSymbols(t *testing.T) {
	sess := newSession(t)
	m := New(sess, nil)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusSymbols, m.focus)

	m.field.SetValue("")
	m, _ = press(t, m, runes("tcs, hdfcbank"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, focusBoard, m.focus)
	assert.Equal(t, []market.Symbol{"TCS", "HDFCBANK"}, sess.Config().Symbols)
	assert.Equal(t, []table.Row{
		{"1", "TCS", "Fetching..."},
		{"2", "HDFCBANK", "Fetching..."},
	}, m.table.Rows())
	assert.Equal(t, "TCS, HDFCBANK", m.field.Value())
}

func TestEditSymbols_KeysTypeIntoField(t *testing.T) {
	sess := newSession(t)
	m := New(sess, nil)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, runes("q+s"))

	assert.False(t, sess.Running())
	assert.Equal(t, tracker.DefaultIntervalSec, sess.Config().IntervalSec)
	assert.Equal(t, "RELIANCE, TCS, INFYq+s", m.field.Value())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "RELIANCE, TCS, INFY", m.field.Value())
	assert.Equal(t, focusBoard, m.focus)
}

func TestViewMsg_UpdatesRows(t *testing.T) {
	ch := make(chan tracker.View, 1)
	m := New(newSession(t), ch)

	v := tracker.View{
		State:       tracker.StateRunning,
		IntervalSec: 10,
		Tick:        1,
		Board: board.Snapshot{Generation: 1, Rows: []board.Row{
			{Symbol: "RELIANCE", Quote: market.PriceQuote(decimal.RequireFromString("2456.5"))},
			{Symbol: "TCS", Quote: market.NetworkError},
			{Symbol: "INFY", Quote: market.FetchFailed},
		}},
	}
	m, cmd := press(t, m, viewMsg(v))

	assert.NotNil(t, cmd, "keeps listening for views")
	assert.Equal(t, []table.Row{
		{"1", "RELIANCE", "2456.50"},
		{"2", "TCS", "Network error"},
		{"3", "INFY", "Failed to fetch"},
	}, m.table.Rows())

	ch <- v
	msg := waitForView(ch)()
	assert.Equal(t, viewMsg(v), msg)
}

func TestQuit(t *testing.T) {
	sess := newSession(t)
	m := New(sess, nil)
	m, _ = press(t, m, runes("s"))
	require.True(t, sess.Running())

	_, cmd := press(t, m, runes("q"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, sess.Running())
}
