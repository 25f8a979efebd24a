package features

import (
	"time"

	"granville-signal-lab/internal/domain"
)

// MarketDay holds index-level features for one date, joined into every
// ticker's feature row by date.
type MarketDay struct {
	Return1Pct  *float64
	Return5Pct  *float64
	HV20        *float64
	DevSMA20Pct *float64
}

// ComputeMarket derives index-level features keyed by date. The series
// must be sorted by date ascending.
func ComputeMarket(index []domain.IndexPoint) map[domain.Date]MarketDay {
	closes := make([]float64, len(index))
	for i, p := range index {
		closes[i] = p.Value
	}
	ret1 := returnPct(closes, 1)
	ret5 := returnPct(closes, 5)
	hv20 := realizedVol(closes, 20)
	sma20 := rollingSMA(closes, 20)

	out := make(map[domain.Date]MarketDay, len(index))
	for i, p := range index {
		day := MarketDay{
			Return1Pct: ret1[i],
			Return5Pct: ret5[i],
			HV20:       hv20[i],
		}
		if sma20[i] != nil && *sma20[i] != 0 {
			day.DevSMA20Pct = fptr((closes[i] - *sma20[i]) / *sma20[i] * 100)
		}
		out[p.Date] = day
	}
	return out
}

// ComputeTicker derives one FeatureRow per bar for a single ticker.
// Bars must be sorted by date ascending. Malformed bars (negative price,
// broken high/low bounds) are excluded before computation; the number of
// excluded bars is returned so callers can flag data quality.
func ComputeTicker(bars []*domain.PriceBar, sector string, market map[domain.Date]MarketDay) ([]*domain.FeatureRow, int) {
	clean := make([]*domain.PriceBar, 0, len(bars))
	dropped := 0
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			dropped++
			continue
		}
		clean = append(clean, b)
	}
	if len(clean) == 0 {
		return nil, dropped
	}

	closes := make([]float64, len(clean))
	volumes := make([]float64, len(clean))
	for i, b := range clean {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	sma5 := rollingSMA(closes, 5)
	sma20 := rollingSMA(closes, 20)
	sma25 := rollingSMA(closes, 25)
	sma60 := rollingSMA(closes, 60)
	rsi9 := rsiWilder(closes, 9)
	rsi14 := rsiWilder(closes, 14)
	atr14 := rollingATR(clean, 14)
	hv5 := realizedVol(closes, 5)
	hv10 := realizedVol(closes, 10)
	hv20 := realizedVol(closes, 20)
	macd := macdHistogram(closes)
	bollW, bollP := bollinger(closes, 20)
	volR5 := volumeRatio(volumes, 5)
	volR20 := volumeRatio(volumes, 20)
	ret1 := returnPct(closes, 1)
	ret5 := returnPct(closes, 5)
	ret10 := returnPct(closes, 10)

	dev := make([]*float64, len(clean))
	for i := range clean {
		if sma20[i] != nil && *sma20[i] != 0 {
			dev[i] = fptr((closes[i] - *sma20[i]) / *sma20[i] * 100)
		}
	}

	rows := make([]*domain.FeatureRow, len(clean))
	for i, b := range clean {
		row := &domain.FeatureRow{
			Ticker:     b.Ticker,
			Date:       b.Date,
			Sector:     sector,
			Close:      b.Close,
			Volume:     b.Volume,
			SMA5:       sma5[i],
			SMA20:      sma20[i],
			SMA25:      sma25[i],
			SMA60:      sma60[i],
			DevSMA20Pct: dev[i],
			RSI9:       rsi9[i],
			RSI14:      rsi14[i],
			ATR14:      atr14[i],
			HV5:        hv5[i],
			HV10:       hv10[i],
			HV20:       hv20[i],
			MACDHist:   macd[i],
			BollWidth:  bollW[i],
			BollPos:    bollP[i],
			VolumeRatio5:  volR5[i],
			VolumeRatio20: volR20[i],
			Return1Pct:  ret1[i],
			Return5Pct:  ret5[i],
			Return10Pct: ret10[i],
			WeekdayNum:  weekdayNum(b.Date),
		}
		if i > 0 {
			row.PrevClose = fptr(closes[i-1])
			row.PrevDevSMA20Pct = dev[i-1]
			row.PrevSMA5 = sma5[i-1]
			row.PrevSMA20 = sma20[i-1]
		}
		if i >= 3 && sma20[i] != nil && sma20[i-3] != nil {
			row.SMA20Slope3 = fptr(*sma20[i] - *sma20[i-3])
		}
		if m, ok := market[b.Date]; ok {
			row.IndexReturn1Pct = m.Return1Pct
			row.IndexReturn5Pct = m.Return5Pct
			row.IndexHV20 = m.HV20
			row.IndexDevSMA20Pct = m.DevSMA20Pct
		}
		if atr14[i] != nil && b.Close != 0 {
			row.ATRPct = fptr(*atr14[i] / b.Close * 100)
		}
		rows[i] = row
	}
	return rows, dropped
}

// ComputeUniverse derives feature rows for every ticker and fills the
// cross-sectional sector-momentum feature (mean 5-day return of the
// ticker's sector on each date). Returns rows per ticker plus the total
// count of malformed bars excluded.
func ComputeUniverse(
	universe map[string][]*domain.PriceBar,
	meta map[string]domain.TickerMeta,
	index []domain.IndexPoint,
) (map[string][]*domain.FeatureRow, int) {
	market := ComputeMarket(index)

	rowsByTicker := make(map[string][]*domain.FeatureRow, len(universe))
	droppedTotal := 0
	for ticker, bars := range universe {
		sector := ""
		if m, ok := meta[ticker]; ok {
			sector = m.Sector
		}
		rows, dropped := ComputeTicker(bars, sector, market)
		droppedTotal += dropped
		if len(rows) > 0 {
			rowsByTicker[ticker] = rows
		}
	}

	fillSectorMomentum(rowsByTicker)
	return rowsByTicker, droppedTotal
}

type sectorDateKey struct {
	sector string
	date   domain.Date
}

// fillSectorMomentum averages 5-day returns per (sector, date) and writes
// the mean back into every member row. Only same-date values participate,
// so the feature stays backward-looking.
func fillSectorMomentum(rowsByTicker map[string][]*domain.FeatureRow) {
	sums := make(map[sectorDateKey]float64)
	counts := make(map[sectorDateKey]int)
	for _, rows := range rowsByTicker {
		for _, r := range rows {
			if r.Sector == "" || r.Return5Pct == nil {
				continue
			}
			k := sectorDateKey{r.Sector, r.Date}
			sums[k] += *r.Return5Pct
			counts[k]++
		}
	}
	for _, rows := range rowsByTicker {
		for _, r := range rows {
			if r.Sector == "" {
				continue
			}
			k := sectorDateKey{r.Sector, r.Date}
			if n := counts[k]; n > 0 {
				r.SectorMomentum5 = fptr(sums[k] / float64(n))
			}
		}
	}
}

func weekdayNum(d domain.Date) float64 {
	wd := d.Weekday()
	if wd == time.Sunday {
		return 7
	}
	return float64(wd)
}
