package lookup

import (
	"errors"
	"testing"

	"granville-signal-lab/internal/domain"
)

func makeBars(dates ...domain.Date) []*domain.PriceBar {
	bars := make([]*domain.PriceBar, len(dates))
	for i, d := range dates {
		bars[i] = &domain.PriceBar{
			Ticker: "7203", Date: d,
			Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000,
		}
	}
	return bars
}

func TestNextBar(t *testing.T) {
	bars := makeBars(20240112, 20240115, 20240116)

	// Gap over the weekend: next bar after Friday is Monday.
	bar, idx, err := NextBar(bars, 20240112)
	if err != nil {
		t.Fatalf("NextBar failed: %v", err)
	}
	if bar.Date != 20240115 || idx != 1 {
		t.Errorf("expected 2024-01-15 at index 1, got %s at %d", bar.Date, idx)
	}

	// Signal on the last trading day: no next bar, normal boundary.
	_, _, err = NextBar(bars, 20240116)
	if !errors.Is(err, ErrNoNextBar) {
		t.Errorf("expected ErrNoNextBar, got %v", err)
	}

	_, _, err = NextBar(nil, 20240116)
	if !errors.Is(err, ErrNoBars) {
		t.Errorf("expected ErrNoBars for empty slice, got %v", err)
	}
}

func TestBarOn(t *testing.T) {
	bars := makeBars(20240112, 20240115)

	bar, err := BarOn(bars, 20240115)
	if err != nil {
		t.Fatalf("BarOn failed: %v", err)
	}
	if bar.Date != 20240115 {
		t.Errorf("wrong bar: %s", bar.Date)
	}

	if _, err := BarOn(bars, 20240113); !errors.Is(err, ErrBarNotFound) {
		t.Errorf("expected ErrBarNotFound for non-trading day, got %v", err)
	}
}

func TestValueOn(t *testing.T) {
	points := []domain.IndexPoint{
		{Date: 20240110, Value: 100},
		{Date: 20240115, Value: 105},
	}

	// Exact date.
	v, ok := ValueOn(points, 20240115)
	if !ok || v != 105 {
		t.Errorf("expected 105, got %v ok=%t", v, ok)
	}

	// Between points: closest at or before.
	v, ok = ValueOn(points, 20240112)
	if !ok || v != 100 {
		t.Errorf("expected 100, got %v ok=%t", v, ok)
	}

	// Before the first point.
	if _, ok := ValueOn(points, 20240101); ok {
		t.Error("expected no value before series start")
	}
}
