package market

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// Symbol is a trimmed, upper-cased NSE ticker.
type Symbol string

type QuoteStatus string

const (
	StatusPending      QuoteStatus = "pending"
	StatusPrice        QuoteStatus = "price"
	StatusFetchFailed  QuoteStatus = "fetch_failed"
	StatusNetworkError QuoteStatus = "network_error"
)

const (
	textPending      = "Fetching..."
	textFetchFailed  = "Failed to fetch"
	textNetworkError = "Network error"
)

var (
	ErrNetwork     = errors.New("network error")
	ErrFetchFailed = errors.New("fetch failed")
)

// Quote is either a last traded price or one of the sentinel states.
type Quote struct {
	Status QuoteStatus
	Price  decimal.Decimal
}

var (
	Pending      = Quote{Status: StatusPending}
	FetchFailed  = Quote{Status: StatusFetchFailed}
	NetworkError = Quote{Status: StatusNetworkError}
)

func PriceQuote(price decimal.Decimal) Quote {
	return Quote{Status: StatusPrice, Price: price}
}

// QuoteFromError folds a fetch error into its sentinel. Anything not marked
// as a transport failure counts as FetchFailed.
func QuoteFromError(err error) Quote {
	if errors.Is(err, ErrNetwork) {
		return NetworkError
	}
	return FetchFailed
}

func (q Quote) IsPrice() bool {
	return q.Status == StatusPrice
}

func (q Quote) Failed() bool {
	return q.Status == StatusFetchFailed || q.Status == StatusNetworkError
}

func (q Quote) Equal(other Quote) bool {
	if q.Status != other.Status {
		return false
	}
	return q.Status != StatusPrice || q.Price.Equal(other.Price)
}

func (q Quote) String() string {
	switch q.Status {
	case StatusPrice:
		return q.Price.StringFixed(2)
	case StatusFetchFailed:
		return textFetchFailed
	case StatusNetworkError:
		return textNetworkError
	default:
		return textPending
	}
}

type quoteJSON struct {
	Status QuoteStatus      `json:"status"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Text   string           `json:"text"`
}

func (q Quote) MarshalJSON() ([]byte, error) {
	out := quoteJSON{Status: q.Status, Text: q.String()}
	if out.Status == "" {
		out.Status = StatusPending
	}
	if q.IsPrice() {
		p := q.Price
		out.Price = &p
	}
	return json.Marshal(out)
}

type QuoteFetcher interface {
	Fetch(ctx context.Context, symbol Symbol) Quote
}

type QuoteFetcherFunc func(ctx context.Context, symbol Symbol) Quote

func (f QuoteFetcherFunc) Fetch(ctx context.Context, symbol Symbol) Quote {
	return f(ctx, symbol)
}
