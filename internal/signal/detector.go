// Package signal evaluates each ticker-day against the Granville-style
// entry rules, gated by the market regime.
package signal

import (
	"sort"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/idhash"
)

// Rule A thresholds: deviation-from-SMA20 band for a pullback buy.
const (
	pullbackDevLow  = -8.0
	pullbackDevHigh = -3.0
)

// Rule B thresholds: fresh cross back above a rising SMA20.
const (
	breakoutDevHigh     = 2.0
	breakoutPrevDevMax  = 0.5
)

// Rule D threshold: deep dip below SMA20.
const deepPullbackDev = -5.0

// Detector applies the entry rules under a regime gate.
type Detector struct {
	regime   map[domain.Date]domain.RegimeDay
	excluded map[string]bool
}

// NewDetector builds a detector from a precomputed regime series and the
// configured sector exclusion list.
func NewDetector(regime map[domain.Date]domain.RegimeDay, cfg domain.RegimeConfig) *Detector {
	return &Detector{
		regime:   regime,
		excluded: cfg.ExcludedSet(),
	}
}

// Detect evaluates every feature row and returns signals ordered by
// (date, ticker). One signal per (ticker, date): rules that fire together
// union into a composite label.
func (d *Detector) Detect(rowsByTicker map[string][]*domain.FeatureRow) []*domain.Signal {
	var signals []*domain.Signal
	for ticker, rows := range rowsByTicker {
		for _, row := range rows {
			sig := d.evaluate(ticker, row)
			if sig != nil {
				signals = append(signals, sig)
			}
		}
	}
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].SignalDate != signals[j].SignalDate {
			return signals[i].SignalDate < signals[j].SignalDate
		}
		return signals[i].Ticker < signals[j].Ticker
	})
	return signals
}

func (d *Detector) evaluate(ticker string, row *domain.FeatureRow) *domain.Signal {
	day, ok := d.regime[row.Date]
	if !ok || !day.Actionable() {
		return nil
	}
	if d.excluded[row.Sector] {
		return nil
	}

	var types []domain.RuleType
	if rulePullback(row) {
		types = append(types, domain.RulePullback)
	}
	if ruleBreakout(row) {
		types = append(types, domain.RuleBreakout)
	}
	if ruleMiniGoldenCross(row) {
		types = append(types, domain.RuleMiniGoldenCross)
	}
	if ruleDeepPullback(row) {
		types = append(types, domain.RuleDeepPullback)
	}
	if len(types) == 0 {
		return nil
	}

	sig := &domain.Signal{
		Ticker:     ticker,
		SignalDate: row.Date,
		Types:      types,
		Sector:     row.Sector,
		Features:   row,
	}
	sig.SignalID = idhash.ComputeSignalID(ticker, row.Date, sig.Label())
	return sig
}

// rulePullback (A): deviation between -8% and -3% with the first up close
// after the dip. Missing inputs mean the rule does not apply.
func rulePullback(r *domain.FeatureRow) bool {
	if r.DevSMA20Pct == nil || r.PrevClose == nil {
		return false
	}
	dev := *r.DevSMA20Pct
	return dev >= pullbackDevLow && dev <= pullbackDevHigh && r.Close > *r.PrevClose
}

// ruleBreakout (B): SMA20 rising over 3 days, price just crossed back
// above it (deviation in (0%, 2%], yesterday at or below 0.5%) on an up
// close.
func ruleBreakout(r *domain.FeatureRow) bool {
	if r.SMA20Slope3 == nil || r.SMA20 == nil || r.DevSMA20Pct == nil ||
		r.PrevDevSMA20Pct == nil || r.PrevClose == nil {
		return false
	}
	dev := *r.DevSMA20Pct
	return *r.SMA20Slope3 > 0 &&
		r.Close > *r.SMA20 &&
		dev > 0 && dev <= breakoutDevHigh &&
		*r.PrevDevSMA20Pct <= breakoutPrevDevMax &&
		r.Close > *r.PrevClose
}

// ruleMiniGoldenCross (C): SMA5 crosses from at-or-below SMA20 yesterday
// to above it today.
func ruleMiniGoldenCross(r *domain.FeatureRow) bool {
	if r.SMA5 == nil || r.SMA20 == nil || r.PrevSMA5 == nil || r.PrevSMA20 == nil {
		return false
	}
	return *r.PrevSMA5 <= *r.PrevSMA20 && *r.SMA5 > *r.SMA20
}

// ruleDeepPullback (D): deviation at or below -5% with an up close, a more
// aggressive dip-buy than rule A.
func ruleDeepPullback(r *domain.FeatureRow) bool {
	if r.DevSMA20Pct == nil || r.PrevClose == nil {
		return false
	}
	return *r.DevSMA20Pct <= deepPullbackDev && r.Close > *r.PrevClose
}
