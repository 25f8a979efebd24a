package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"granville-signal-lab/internal/domain"
)

func indexSeries(start domain.Date, values ...float64) []domain.IndexPoint {
	out := make([]domain.IndexPoint, len(values))
	date := start
	for i, v := range values {
		out[i] = domain.IndexPoint{Date: date, Value: v}
		date = domain.DateFromTime(date.Time().AddDate(0, 0, 1))
	}
	return out
}

// Monthly macro points from June 2023, rising by default.
func macroSeries(n int, delta float64) []domain.IndexPoint {
	out := make([]domain.IndexPoint, n)
	v := 100.0
	for i := 0; i < n; i++ {
		out[i] = domain.IndexPoint{Date: domain.DateFromTime(
			domain.NewDate(2023, 6, 1).Time().AddDate(0, i, 0)), Value: v}
		v += delta
	}
	return out
}

func TestComputeUptrendVsSMA(t *testing.T) {
	// 5 flat values then a pop: with window 3 the last close sits above
	// its SMA, the flat ones do not.
	index := indexSeries(domain.NewDate(2024, 1, 10), 100, 100, 100, 100, 110)
	cfg := domain.RegimeConfig{IndexSMAWindow: 3, MacroLookbackMonths: 3}

	out := Compute(index, macroSeries(12, 2), cfg)

	// First two dates lack SMA history.
	assert.NotContains(t, out, index[0].Date)
	assert.NotContains(t, out, index[1].Date)

	flat, ok := out[index[3].Date]
	require.True(t, ok)
	assert.False(t, flat.IndexUptrend)
	assert.False(t, flat.Actionable())

	pop, ok := out[index[4].Date]
	require.True(t, ok)
	assert.True(t, pop.IndexUptrend)
	assert.True(t, pop.MacroExpanding)
	assert.True(t, pop.Actionable())
}

func TestComputeMacroContraction(t *testing.T) {
	index := indexSeries(domain.NewDate(2024, 1, 10), 100, 100, 110)
	cfg := domain.RegimeConfig{IndexSMAWindow: 3, MacroLookbackMonths: 3}

	out := Compute(index, macroSeries(12, -2), cfg)

	day, ok := out[index[2].Date]
	require.True(t, ok)
	assert.True(t, day.IndexUptrend)
	assert.False(t, day.MacroExpanding)
	assert.False(t, day.Actionable())
}

func TestComputeMissingMacroCoverageOmitsDate(t *testing.T) {
	index := indexSeries(domain.NewDate(2024, 1, 10), 100, 100, 110)
	cfg := domain.RegimeConfig{IndexSMAWindow: 3, MacroLookbackMonths: 3}

	// Macro starts December 2023, so the 3-month lookback from January
	// 2024 lands before coverage.
	macro := []domain.IndexPoint{
		{Date: domain.NewDate(2023, 12, 1), Value: 100},
		{Date: domain.NewDate(2024, 1, 1), Value: 102},
	}
	out := Compute(index, macro, cfg)
	assert.Empty(t, out)
}

func TestComputeLookbackUsesCalendarMonths(t *testing.T) {
	index := indexSeries(domain.NewDate(2024, 1, 10), 100, 100, 110)
	cfg := domain.RegimeConfig{IndexSMAWindow: 3, MacroLookbackMonths: 1}

	// Only one month of history needed with lookback 1.
	macro := []domain.IndexPoint{
		{Date: domain.NewDate(2023, 12, 1), Value: 100},
		{Date: domain.NewDate(2024, 1, 1), Value: 102},
	}
	out := Compute(index, macro, cfg)

	day, ok := out[index[2].Date]
	require.True(t, ok)
	assert.True(t, day.MacroExpanding)
}

func TestComputeDefaultsApplied(t *testing.T) {
	// Zero config falls back to window 20 and lookback 3; with only 10
	// index points nothing has enough history.
	index := indexSeries(domain.NewDate(2024, 1, 10),
		100, 101, 102, 103, 104, 105, 106, 107, 108, 109)
	out := Compute(index, macroSeries(12, 2), domain.RegimeConfig{})
	assert.Empty(t, out)
}
