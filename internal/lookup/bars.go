// Package lookup provides date navigation over ordered bar slices.
package lookup

import (
	"errors"
	"sort"

	"granville-signal-lab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoBars      = errors.New("no bars available")
	ErrNoNextBar   = errors.New("no trading day after target date")
	ErrBarNotFound = errors.New("no bar on target date")
)

// IndexOf returns the slice index of the bar on the exact date.
// Bars must be sorted by date ascending.
func IndexOf(bars []*domain.PriceBar, date domain.Date) (int, error) {
	if len(bars) == 0 {
		return 0, ErrNoBars
	}
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Date >= date })
	if i < len(bars) && bars[i].Date == date {
		return i, nil
	}
	return 0, ErrBarNotFound
}

// BarOn returns the bar on the exact date.
func BarOn(bars []*domain.PriceBar, date domain.Date) (*domain.PriceBar, error) {
	i, err := IndexOf(bars, date)
	if err != nil {
		return nil, err
	}
	return bars[i], nil
}

// NextBar returns the first bar strictly after the target date. A signal
// on the last available trading day has no next bar; that is a normal
// boundary condition, reported as ErrNoNextBar.
func NextBar(bars []*domain.PriceBar, date domain.Date) (*domain.PriceBar, int, error) {
	if len(bars) == 0 {
		return nil, 0, ErrNoBars
	}
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Date > date })
	if i >= len(bars) {
		return nil, 0, ErrNoNextBar
	}
	return bars[i], i, nil
}

// SortBars orders bars by date ascending in place.
func SortBars(bars []*domain.PriceBar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
}

// ValueOn returns the series value on the exact date, or the closest value
// at or before it. Used for index/macro series joined by date.
func ValueOn(points []domain.IndexPoint, date domain.Date) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	i := sort.Search(len(points), func(i int) bool { return points[i].Date > date })
	if i == 0 {
		return 0, false
	}
	return points[i-1].Value, true
}
