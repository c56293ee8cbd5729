package board

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nse-tracker/internal/market"
)

func price(s string) market.Quote {
	return market.PriceQuote(decimal.RequireFromString(s))
}

func TestReconcile_FromEmpty(t *testing.T) {
	st := Reconcile(nil, market.ParseSymbols("RELIANCE, TCS, INFY"))

	snap := st.Snapshot()
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, []market.Symbol{"RELIANCE", "TCS", "INFY"}, st.Symbols())
	for _, r := range snap.Rows {
		assert.Equal(t, market.Pending, r.Quote)
	}
	assert.EqualValues(t, 1, st.Generation())
}

func TestReconcile_SameSymbolsKeepsState(t *testing.T) {
	symbols := []market.Symbol{"RELIANCE", "TCS"}
	st := Reconcile(nil, symbols)
	st.Apply(Batch{Generation: st.Generation(), Updates: []Update{
		{Index: 0, Symbol: "RELIANCE", Quote: price("2456.5")},
		{Index: 1, Symbol: "TCS", Quote: market.NetworkError},
	}})

	again := Reconcile(st, []market.Symbol{"RELIANCE", "TCS"})
	twice := Reconcile(again, []market.Symbol{"RELIANCE", "TCS"})

	assert.Same(t, st, again)
	assert.Same(t, st, twice)
	assert.True(t, price("2456.5").Equal(twice.Quote(0)))
	assert.Equal(t, market.NetworkError, twice.Quote(1))
}

func TestReconcile_ResetsOnChange(t *testing.T) {
	tests := []struct {
		name string
		next []market.Symbol
	}{
		{"reordered", []market.Symbol{"TCS", "RELIANCE"}},
		{"added", []market.Symbol{"RELIANCE", "TCS", "INFY"}},
		{"removed", []market.Symbol{"RELIANCE"}},
		{"replaced same length", []market.Symbol{"RELIANCE", "INFY"}},
		{"duplicated", []market.Symbol{"RELIANCE", "TCS", "TCS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Reconcile(nil, []market.Symbol{"RELIANCE", "TCS"})
			st.Apply(Batch{Generation: st.Generation(), Updates: []Update{
				{Index: 0, Symbol: "RELIANCE", Quote: price("1")},
				{Index: 1, Symbol: "TCS", Quote: price("2")},
			}})

			next := Reconcile(st, tt.next)

			assert.NotSame(t, st, next)
			assert.Equal(t, tt.next, next.Symbols())
			assert.Greater(t, next.Generation(), st.Generation())
			for i := range tt.next {
				assert.Equal(t, market.Pending, next.Quote(i))
			}
		})
	}
}

func TestReconcile_EmptyCurrentAlwaysRebuilds(t *testing.T) {
	empty := Reconcile(nil, nil)
	assert.Zero(t, empty.Len())

	next := Reconcile(empty, nil)
	assert.NotSame(t, empty, next)
	assert.Zero(t, next.Len())
}

func TestApply_OnlyTouchesNamedRows(t *testing.T) {
	st := Reconcile(nil, []market.Symbol{"RELIANCE", "TCS", "INFY"})
	st.Apply(Batch{Generation: st.Generation(), Updates: []Update{
		{Index: 0, Symbol: "RELIANCE", Quote: price("10")},
		{Index: 2, Symbol: "INFY", Quote: price("30")},
	}})

	n := st.Apply(Batch{Generation: st.Generation(), Updates: []Update{
		{Index: 1, Symbol: "TCS", Quote: market.NetworkError},
	}})

	assert.Equal(t, 1, n)
	assert.True(t, price("10").Equal(st.Quote(0)))
	assert.Equal(t, market.NetworkError, st.Quote(1))
	assert.True(t, price("30").Equal(st.Quote(2)))
}

func TestApply_Duplicates(t *testing.T) {
	st := Reconcile(nil, []market.Symbol{"TCS", "TCS"})

	n := st.Apply(Batch{Generation: st.Generation(), Updates: []Update{
		{Index: 1, Symbol: "TCS", Quote: price("3550")},
	}})

	assert.Equal(t, 1, n)
	assert.Equal(t, market.Pending, st.Quote(0))
	assert.True(t, price("3550").Equal(st.Quote(1)))
}

func TestApply_StaleGeneration(t *testing.T) {
	old := Reconcile(nil, []market.Symbol{"RELIANCE", "TCS"})
	batch := Batch{Generation: old.Generation(), Updates: []Update{
		{Index: 0, Symbol: "RELIANCE", Quote: price("1")},
	}}

	next := Reconcile(old, []market.Symbol{"RELIANCE", "INFY"})

	assert.Zero(t, next.Apply(batch))
	assert.Equal(t, market.Pending, next.Quote(0))
}

func TestApply_MismatchedRowSkipped(t *testing.T) {
	st := Reconcile(nil, []market.Symbol{"RELIANCE"})

	n := st.Apply(Batch{Generation: st.Generation(), Updates: []Update{
		{Index: 0, Symbol: "TCS", Quote: price("1")},
		{Index: 5, Symbol: "RELIANCE", Quote: price("1")},
	}})

	assert.Zero(t, n)
	assert.Equal(t, market.Pending, st.Quote(0))
}

func TestSnapshot_IsACopy(t *testing.T) {
	st := Reconcile(nil, []market.Symbol{"RELIANCE"})
	snap := st.Snapshot()

	st.Apply(Batch{Generation: st.Generation(), Updates: []Update{
		{Index: 0, Symbol: "RELIANCE", Quote: price("1")},
	}})

	assert.Equal(t, market.Pending, snap.Rows[0].Quote)
	assert.Equal(t, Snapshot{Rows: []Row{}}, (*State)(nil).Snapshot())
	assert.Equal(t, []market.Symbol{"RELIANCE"}, snap.Symbols())
}

func TestBatchFromResults(t *testing.T) {
	b := BatchFromResults(7, []market.Result{
		{Index: 1, Symbol: "TCS", Quote: market.FetchFailed},
	})

	assert.EqualValues(t, 7, b.Generation)
	assert.Equal(t, []Update{{Index: 1, Symbol: "TCS", Quote: market.FetchFailed}}, b.Updates)
}
