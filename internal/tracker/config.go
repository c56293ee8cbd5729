package tracker

import (
	"errors"
	"fmt"

	"nse-tracker/internal/market"
)

const (
	MinIntervalSec     = 5
	MaxIntervalSec     = 60
	DefaultIntervalSec = 10
	DefaultSymbols     = "RELIANCE, TCS, INFY"
)

var ErrInvalidInterval = errors.New("invalid refresh interval")

// RefreshConfig is what the UI shell controls.
type RefreshConfig struct {
	Symbols     []market.Symbol `json:"symbols"`
	IntervalSec int             `json:"interval_sec"`
	Running     bool            `json:"running"`
}

func ValidateInterval(sec int) error {
	if sec < MinIntervalSec || sec > MaxIntervalSec {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidInterval, sec, MinIntervalSec, MaxIntervalSec)
	}
	return nil
}

func ClampInterval(sec int) int {
	return min(max(sec, MinIntervalSec), MaxIntervalSec)
}
