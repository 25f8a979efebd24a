package features

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"granville-signal-lab/internal/domain"
)

func genBars(t *testing.T, ticker string, n int) []*domain.PriceBar {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	bars := make([]*domain.PriceBar, n)
	price := 1000.0
	date := domain.NewDate(2024, 1, 4)
	for i := 0; i < n; i++ {
		price *= 1 + 0.01*rng.NormFloat64()
		open := price * (1 + 0.002*rng.NormFloat64())
		high := math.Max(open, price) * 1.004
		low := math.Min(open, price) * 0.996
		bars[i] = &domain.PriceBar{
			Ticker: ticker, Date: date,
			Open: open, High: high, Low: low, Close: price,
			Volume: float64(100000 + rng.Intn(50000)),
		}
		date = domain.DateFromTime(date.Time().AddDate(0, 0, 1))
	}
	return bars
}

// Deleting all bars strictly after date D must not change the feature row
// at D.
func TestComputeTickerNoLookAhead(t *testing.T) {
	bars := genBars(t, "7203", 120)

	full, dropped := ComputeTicker(bars, "Autos", nil)
	require.Zero(t, dropped)
	require.Len(t, full, 120)

	for _, cut := range []int{70, 90, 119} {
		truncated, _ := ComputeTicker(bars[:cut], "Autos", nil)
		require.Len(t, truncated, cut)
		for i := 0; i < cut; i++ {
			assert.Equal(t, full[i], truncated[i], "row %d changed when future bars were removed", i)
		}
	}
}

func TestComputeTickerExcludesMalformedBars(t *testing.T) {
	bars := genBars(t, "7203", 30)
	bars[10].High = bars[10].Low - 1 // broken bounds
	bars[11].Close = -5              // negative price

	rows, dropped := ComputeTicker(bars, "Autos", nil)
	assert.Equal(t, 2, dropped)
	assert.Len(t, rows, 28)
}

func TestComputeTickerMarketJoin(t *testing.T) {
	bars := genBars(t, "7203", 30)
	market := map[domain.Date]MarketDay{
		bars[5].Date: {Return1Pct: fptr(0.4), HV20: fptr(15.0)},
	}
	rows, _ := ComputeTicker(bars, "Autos", market)

	require.NotNil(t, rows[5].IndexReturn1Pct)
	assert.InDelta(t, 0.4, *rows[5].IndexReturn1Pct, 1e-12)
	assert.Nil(t, rows[6].IndexReturn1Pct)
}

func TestComputeUniverseSectorMomentum(t *testing.T) {
	barsA := genBars(t, "AAAA", 30)
	barsB := genBars(t, "BBBB", 30)
	universe := map[string][]*domain.PriceBar{"AAAA": barsA, "BBBB": barsB}
	meta := map[string]domain.TickerMeta{
		"AAAA": {Ticker: "AAAA", Sector: "Tech"},
		"BBBB": {Ticker: "BBBB", Sector: "Tech"},
	}

	rows, dropped := ComputeUniverse(universe, meta, nil)
	require.Zero(t, dropped)
	require.Len(t, rows, 2)

	a, b := rows["AAAA"], rows["BBBB"]
	i := 10 // both have Return5Pct here
	require.NotNil(t, a[i].Return5Pct)
	require.NotNil(t, b[i].Return5Pct)
	want := (*a[i].Return5Pct + *b[i].Return5Pct) / 2

	require.NotNil(t, a[i].SectorMomentum5)
	assert.InDelta(t, want, *a[i].SectorMomentum5, 1e-9)
	assert.Equal(t, *a[i].SectorMomentum5, *b[i].SectorMomentum5)
}

func TestComputeMarketDeviation(t *testing.T) {
	points := make([]domain.IndexPoint, 25)
	date := domain.NewDate(2024, 1, 4)
	for i := range points {
		points[i] = domain.IndexPoint{Date: date, Value: 30000}
		date = domain.DateFromTime(date.Time().AddDate(0, 0, 1))
	}
	market := ComputeMarket(points)

	day := market[points[24].Date]
	require.NotNil(t, day.DevSMA20Pct)
	assert.InDelta(t, 0.0, *day.DevSMA20Pct, 1e-9)
}
