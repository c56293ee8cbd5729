package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSymbols(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []Symbol
	}{
		{"trims and uppercases", "  a, b ,,c ", []Symbol{"A", "B", "C"}},
		{"default list", "RELIANCE, TCS, INFY", []Symbol{"RELIANCE", "TCS", "INFY"}},
		{"keeps duplicates", "tcs,TCS, tcs", []Symbol{"TCS", "TCS", "TCS"}},
		{"keeps order", "infy,reliance", []Symbol{"INFY", "RELIANCE"}},
		{"empty", "", []Symbol{}},
		{"only separators", " , ,, ", []Symbol{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseSymbols(tt.raw))
		})
	}
}

func TestSameSymbols(t *testing.T) {
	t.Parallel()

	assert.True(t, SameSymbols([]Symbol{"A", "B"}, []Symbol{"A", "B"}))
	assert.False(t, SameSymbols([]Symbol{"A", "B"}, []Symbol{"B", "A"}))
	assert.False(t, SameSymbols([]Symbol{"A"}, []Symbol{"A", "A"}))
	assert.True(t, SameSymbols(nil, []Symbol{}))
}

func TestJoinSymbols(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "RELIANCE, TCS", JoinSymbols([]Symbol{"RELIANCE", "TCS"}))
	assert.Equal(t, "", JoinSymbols(nil))
}
