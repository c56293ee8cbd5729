// Package board holds the display state of the quote table: one row per
// requested symbol, in request order, with a price cell that the refresh
// loop overwrites in place.
package board

import (
	"nse-tracker/internal/market"
)

type Row struct {
	Symbol market.Symbol `json:"symbol"`
	Quote  market.Quote  `json:"quote"`
}

// State is the ordered table. A State is replaced wholesale when the symbol
// list changes; every replacement carries a new generation.
type State struct {
	generation uint64
	rows       []Row
}

// Reconcile returns current untouched when its symbols already match
// symbols in order. Otherwise it returns a new State with every quote
// Pending.
func Reconcile(current *State, symbols []market.Symbol) *State {
	if current != nil && current.Len() > 0 && market.SameSymbols(current.Symbols(), symbols) {
		return current
	}
	var gen uint64 = 1
	if current != nil {
		gen = current.generation + 1
	}
	rows := make([]Row, len(symbols))
	for i, sym := range symbols {
		rows[i] = Row{Symbol: sym, Quote: market.Pending}
	}
	return &State{generation: gen, rows: rows}
}

func (s *State) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation
}

func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

func (s *State) Symbols() []market.Symbol {
	if s == nil {
		return nil
	}
	out := make([]market.Symbol, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Symbol
	}
	return out
}

func (s *State) Quote(i int) market.Quote {
	return s.rows[i].Quote
}

type Update struct {
	Index  int
	Symbol market.Symbol
	Quote  market.Quote
}

// Batch is the outcome of one fetch pass against a given generation.
type Batch struct {
	Generation uint64
	Updates    []Update
}

func BatchFromResults(gen uint64, results []market.Result) Batch {
	b := Batch{Generation: gen, Updates: make([]Update, 0, len(results))}
	for _, r := range results {
		b.Updates = append(b.Updates, Update{Index: r.Index, Symbol: r.Symbol, Quote: r.Quote})
	}
	return b
}

// Apply writes the batch into the rows it names and returns how many were
// written. A batch from another generation is dropped entirely; updates
// whose index no longer holds the same symbol are skipped.
func (s *State) Apply(b Batch) int {
	if s == nil || b.Generation != s.generation {
		return 0
	}
	applied := 0
	for _, u := range b.Updates {
		if u.Index < 0 || u.Index >= len(s.rows) || s.rows[u.Index].Symbol != u.Symbol {
			continue
		}
		s.rows[u.Index].Quote = u.Quote
		applied++
	}
	return applied
}

type Snapshot struct {
	Generation uint64 `json:"generation"`
	Rows       []Row  `json:"rows"`
}

func (s *State) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{Rows: []Row{}}
	}
	rows := make([]Row, len(s.rows))
	copy(rows, s.rows)
	return Snapshot{Generation: s.generation, Rows: rows}
}

func (s Snapshot) Symbols() []market.Symbol {
	out := make([]market.Symbol, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Symbol
	}
	return out
}
