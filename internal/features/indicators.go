// Package features derives per-(ticker, date) technical feature rows from
// raw daily bars. Every rolling computation is strictly backward-looking:
// a value at index i depends only on bars [0, i]. Windows require the full
// window length of history before producing a value; until then the slot
// stays nil.
package features

import (
	"math"

	"granville-signal-lab/internal/domain"
)

// annualization factor for daily realized volatility (trading days/year).
const tradingDaysPerYear = 250.0

func fptr(v float64) *float64 { return &v }

// rollingSMA returns the simple moving average aligned to values.
// Entry i is nil until i >= window-1 (full-window min_periods).
func rollingSMA(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = fptr(sum / float64(window))
		}
	}
	return out
}

// rsiWilder computes the Relative Strength Index with Wilder-style
// smoothed gain/loss averages. When the average loss is zero the RSI is
// defined as 100; a zero-gain zero-loss window yields 50.
func rsiWilder(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = fptr(rsiFromAverages(avgGain, avgLoss))

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = fptr(rsiFromAverages(avgGain, avgLoss))
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// trueRange returns the TR series aligned to bars; entry 0 is nil because
// it needs the previous close.
func trueRange(bars []*domain.PriceBar) []*float64 {
	out := make([]*float64, len(bars))
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		out[i] = fptr(math.Max(hl, math.Max(hc, lc)))
	}
	return out
}

// rollingATR is the rolling mean of the True Range over the period.
func rollingATR(bars []*domain.PriceBar, period int) []*float64 {
	out := make([]*float64, len(bars))
	tr := trueRange(bars)
	if period <= 0 || len(bars) < period+1 {
		return out
	}
	sum := 0.0
	count := 0
	for i := 1; i < len(bars); i++ {
		sum += *tr[i]
		count++
		if count > period {
			sum -= *tr[i-period]
			count--
		}
		if count == period {
			out[i] = fptr(sum / float64(period))
		}
	}
	return out
}

// realizedVol is the annualized standard deviation of 1-day percentage
// returns over the window, in percent.
func realizedVol(closes []float64, window int) []*float64 {
	out := make([]*float64, len(closes))
	if window <= 1 || len(closes) < window+1 {
		return out
	}
	rets := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		rets[i] = closes[i]/closes[i-1] - 1
	}
	for i := window; i < len(closes); i++ {
		mean := 0.0
		for j := i - window + 1; j <= i; j++ {
			mean += rets[j]
		}
		mean /= float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := rets[j] - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(window-1))
		out[i] = fptr(std * math.Sqrt(tradingDaysPerYear) * 100)
	}
	return out
}

// ema returns the exponential moving average seeded by the SMA of the
// first period values.
func ema(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	cur := sum / float64(period)
	out[period-1] = fptr(cur)
	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		cur = (values[i]-cur)*k + cur
		out[i] = fptr(cur)
	}
	return out
}

// macdHistogram computes MACD(12,26) minus its 9-period signal line.
func macdHistogram(closes []float64) []*float64 {
	out := make([]*float64, len(closes))
	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)

	macd := make([]float64, 0, len(closes))
	macdStart := -1
	for i := range closes {
		if ema12[i] != nil && ema26[i] != nil {
			if macdStart < 0 {
				macdStart = i
			}
			macd = append(macd, *ema12[i]-*ema26[i])
		}
	}
	if macdStart < 0 {
		return out
	}
	signal := ema(macd, 9)
	for j, s := range signal {
		if s != nil {
			out[macdStart+j] = fptr(macd[j] - *s)
		}
	}
	return out
}

// bollinger returns band width ((upper-lower)/middle) and band position
// ((close-lower)/(upper-lower)) for a 2-sigma band over the window.
func bollinger(closes []float64, window int) (width, pos []*float64) {
	width = make([]*float64, len(closes))
	pos = make([]*float64, len(closes))
	if window <= 1 || len(closes) < window {
		return width, pos
	}
	for i := window - 1; i < len(closes); i++ {
		mean := 0.0
		for j := i - window + 1; j <= i; j++ {
			mean += closes[j]
		}
		mean /= float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := closes[j] - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(window))
		upper := mean + 2*std
		lower := mean - 2*std
		if mean != 0 {
			width[i] = fptr((upper - lower) / mean)
		}
		if band := upper - lower; band > 0 {
			pos[i] = fptr((closes[i] - lower) / band)
		}
	}
	return width, pos
}

// returnPct returns the N-day percentage return.
func returnPct(closes []float64, n int) []*float64 {
	out := make([]*float64, len(closes))
	for i := n; i < len(closes); i++ {
		if closes[i-n] != 0 {
			out[i] = fptr((closes[i]/closes[i-n] - 1) * 100)
		}
	}
	return out
}

// volumeRatio divides today's volume by its rolling average.
func volumeRatio(volumes []float64, window int) []*float64 {
	out := make([]*float64, len(volumes))
	avg := rollingSMA(volumes, window)
	for i := range volumes {
		if avg[i] != nil && *avg[i] > 0 {
			out[i] = fptr(volumes[i] / *avg[i])
		}
	}
	return out
}
