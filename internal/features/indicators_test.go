package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingSMAFullWindowOnly(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := rollingSMA(values, 3)
	require.Len(t, out, 5)

	assert.Nil(t, out[0])
	assert.Nil(t, out[1])
	require.NotNil(t, out[2])
	assert.InDelta(t, 2.0, *out[2], 1e-12)
	require.NotNil(t, out[4])
	assert.InDelta(t, 4.0, *out[4], 1e-12)
}

func TestRSIWilderBoundaries(t *testing.T) {
	// Strictly rising closes: no losses, RSI pegs at 100.
	up := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110}
	rsi := rsiWilder(up, 9)
	require.NotNil(t, rsi[10])
	assert.InDelta(t, 100.0, *rsi[10], 1e-9)

	// Flat closes: no gains and no losses, RSI settles at 50.
	flat := make([]float64, 11)
	for i := range flat {
		flat[i] = 100
	}
	rsiFlat := rsiWilder(flat, 9)
	require.NotNil(t, rsiFlat[10])
	assert.InDelta(t, 50.0, *rsiFlat[10], 1e-9)
}

func TestRSIWilderNeedsSeedWindow(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104}
	rsi := rsiWilder(closes, 9)
	for i, v := range rsi {
		assert.Nil(t, v, "index %d should lack history", i)
	}
}

func TestReturnPct(t *testing.T) {
	closes := []float64{100, 110, 99}
	out := returnPct(closes, 1)
	assert.Nil(t, out[0])
	require.NotNil(t, out[1])
	assert.InDelta(t, 10.0, *out[1], 1e-9)
	require.NotNil(t, out[2])
	assert.InDelta(t, -10.0, *out[2], 1e-9)
}

func TestRealizedVolFlatSeriesIsZero(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 250
	}
	out := realizedVol(closes, 5)
	require.NotNil(t, out[9])
	assert.InDelta(t, 0.0, *out[9], 1e-9)
}

func TestBollingerPositionWithinBands(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + 3*math.Sin(float64(i))
	}
	width, pos := bollinger(closes, 20)
	require.NotNil(t, width[24])
	require.NotNil(t, pos[24])
	assert.Greater(t, *width[24], 0.0)
	assert.GreaterOrEqual(t, *pos[24], -0.5)
	assert.LessOrEqual(t, *pos[24], 1.5)
}
