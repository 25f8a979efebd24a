package domain

import (
	"errors"
	"fmt"
)

// Bar validation errors.
var (
	ErrNonPositivePrice = errors.New("bar has non-positive price")
	ErrBadHighLow       = errors.New("bar high/low bounds violated")
)

// PriceBar is one ticker-day of OHLCV data. Immutable once loaded.
type PriceBar struct {
	Ticker string
	Date   Date
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks price positivity and high/low bounds.
func (b *PriceBar) Validate() error {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("%w: %s %s", ErrNonPositivePrice, b.Ticker, b.Date)
	}
	if b.High < b.Open || b.High < b.Close || b.High < b.Low ||
		b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("%w: %s %s", ErrBadHighLow, b.Ticker, b.Date)
	}
	return nil
}

// IndexPoint is one day of an index or macro series, keyed only by date.
type IndexPoint struct {
	Date  Date
	Value float64
}

// TickerMeta holds static per-ticker metadata. Sector is used for regime
// exclusion filtering and sector-level aggregation only.
type TickerMeta struct {
	Ticker string
	Name   string
	Sector string
}
