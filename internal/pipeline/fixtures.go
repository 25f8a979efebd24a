package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

// FixtureSeed fixes the synthetic data generator. Every run of the
// fixture loader produces byte-identical stores.
const FixtureSeed = 42

// fixtureTickers is the synthetic universe: (ticker, sector, base price).
var fixtureTickers = []struct {
	ticker string
	sector string
	base   float64
}{
	{"7203", "Autos", 2400},
	{"6758", "Electronics", 12800},
	{"9984", "Telecom", 8900},
	{"8306", "Banks", 1500},
	{"4502", "Pharma", 4100},
}

// LoadFixtures fills the stores with a deterministic synthetic universe:
// daily bars over roughly one trading year, an uptrending index and a
// rising leading macro series, so the regime gate opens for most of it.
func LoadFixtures(
	ctx context.Context,
	barStore storage.BarStore,
	seriesStore storage.SeriesStore,
	metaStore storage.MetaStore,
) error {
	rng := rand.New(rand.NewSource(FixtureSeed))
	dates := tradingDates(domain.NewDate(2024, 1, 4), 250)

	for _, ft := range fixtureTickers {
		meta := &domain.TickerMeta{Ticker: ft.ticker, Name: "Fixture " + ft.ticker, Sector: ft.sector}
		if err := metaStore.Insert(ctx, meta); err != nil {
			return fmt.Errorf("fixture meta %s: %w", ft.ticker, err)
		}

		bars := syntheticBars(rng, ft.ticker, ft.base, dates)
		if err := barStore.InsertBulk(ctx, bars); err != nil {
			return fmt.Errorf("fixture bars %s: %w", ft.ticker, err)
		}
	}

	index := make([]domain.IndexPoint, len(dates))
	value := 33000.0
	for i, d := range dates {
		value *= 1 + 0.0006 + 0.006*rng.NormFloat64()
		index[i] = domain.IndexPoint{Date: d, Value: value}
	}
	if err := seriesStore.InsertBulk(ctx, storage.SeriesIndex, index); err != nil {
		return fmt.Errorf("fixture index: %w", err)
	}

	// Monthly macro points reaching back far enough to cover the lookback
	// at the start of the bar range.
	var macro []domain.IndexPoint
	macroValue := 98.0
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	for m := 0; m < 16; m++ {
		macroValue += 0.4
		macro = append(macro, domain.IndexPoint{
			Date:  domain.DateFromTime(start.AddDate(0, m, 0)),
			Value: macroValue,
		})
	}
	if err := seriesStore.InsertBulk(ctx, storage.SeriesMacroLeading, macro); err != nil {
		return fmt.Errorf("fixture macro: %w", err)
	}

	return nil
}

// syntheticBars walks a price with drift, noise and a periodic dip-and-
// recover cycle so the pullback rules actually fire.
func syntheticBars(rng *rand.Rand, ticker string, base float64, dates []domain.Date) []*domain.PriceBar {
	bars := make([]*domain.PriceBar, 0, len(dates))
	price := base
	for i, d := range dates {
		drift := 0.0004
		// Dip phase every 40 sessions, recovery right after.
		switch phase := i % 40; {
		case phase >= 28 && phase < 34:
			drift = -0.012
		case phase >= 34:
			drift = 0.010
		}
		price *= 1 + drift + 0.008*rng.NormFloat64()

		open := price * (1 + 0.002*rng.NormFloat64())
		closePx := price
		high := math.Max(open, closePx) * (1 + 0.004*rng.Float64())
		low := math.Min(open, closePx) * (1 - 0.004*rng.Float64())

		bars = append(bars, &domain.PriceBar{
			Ticker: ticker,
			Date:   d,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePx,
			Volume: float64(500000 + rng.Intn(500000)),
		})
	}
	return bars
}

// tradingDates returns n consecutive weekdays starting at or after start.
func tradingDates(start domain.Date, n int) []domain.Date {
	dates := make([]domain.Date, 0, n)
	t := start.Time()
	for len(dates) < n {
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, domain.DateFromTime(t))
		}
		t = t.AddDate(0, 0, 1)
	}
	return dates
}
