// Package regime computes the market-wide gate that must hold before any
// individual-stock signal is actionable.
package regime

import (
	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/lookup"
)

// Compute evaluates the gate once per index date: uptrend when the index
// close sits above its N-day SMA, expansion when the leading macro index
// rose over the configured lookback in calendar months. Dates with not
// enough index history or no macro coverage are simply absent from the
// result, which downstream treats as gate-closed.
func Compute(index []domain.IndexPoint, macro []domain.IndexPoint, cfg domain.RegimeConfig) map[domain.Date]domain.RegimeDay {
	window := cfg.IndexSMAWindow
	if window <= 0 {
		window = 20
	}
	lookback := cfg.MacroLookbackMonths
	if lookback <= 0 {
		lookback = 3
	}

	out := make(map[domain.Date]domain.RegimeDay, len(index))
	sum := 0.0
	for i, p := range index {
		sum += p.Value
		if i >= window {
			sum -= index[i-window].Value
		}
		if i < window-1 {
			continue
		}
		sma := sum / float64(window)

		expanding, ok := macroExpanding(macro, p.Date, lookback)
		if !ok {
			continue
		}

		out[p.Date] = domain.RegimeDay{
			Date:           p.Date,
			IndexUptrend:   p.Value > sma,
			MacroExpanding: expanding,
		}
	}
	return out
}

// macroExpanding compares the macro value at date against its value
// lookback calendar months earlier (closest at-or-before join).
func macroExpanding(macro []domain.IndexPoint, date domain.Date, lookbackMonths int) (bool, bool) {
	now, ok := lookup.ValueOn(macro, date)
	if !ok {
		return false, false
	}
	past := date.Time().AddDate(0, -lookbackMonths, 0)
	then, ok := lookup.ValueOn(macro, domain.DateFromTime(past))
	if !ok {
		return false, false
	}
	return now-then > 0, true
}
