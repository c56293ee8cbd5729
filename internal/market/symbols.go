package market

import (
	"slices"
	"strings"
)

// ParseSymbols splits a comma separated list into symbols. Order and
// duplicates are kept; blank entries are dropped.
func ParseSymbols(raw string) []Symbol {
	parts := strings.Split(raw, ",")
	out := make([]Symbol, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, Symbol(strings.ToUpper(p)))
		}
	}
	return out
}

func SameSymbols(a, b []Symbol) bool {
	return slices.Equal(a, b)
}

func JoinSymbols(symbols []Symbol) string {
	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
