// Package metrics computes descriptive aggregates over the simulated
// trade ledger. These are reporting outputs only; none of them feed back
// into signal detection or training.
package metrics

import (
	"math"
	"sort"

	"granville-signal-lab/internal/domain"
)

// Aggregate summarizes one trade population (a config run, or one sector
// slice of it).
type Aggregate struct {
	Group string // "" for the whole run, sector name for slices

	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64

	ReturnMean   float64
	ReturnMedian float64
	ReturnP10    float64
	ReturnP90    float64
	ReturnStddev float64
	TotalProfit  float64 // fixed-lot currency P&L

	// Exit mechanics breakdown (descriptive only, never a feature).
	StopLossRate  float64
	TakeProfitRate float64
	TechnicalRate float64
	ExpiryRate    float64
	DataGapRate   float64

	MaxDrawdown          float64
	MaxConsecutiveLosses int
}

// Compute calculates the aggregate for a trade population. Trades are
// sorted by (entry date, trade ID) before order-dependent metrics.
func Compute(trades []*domain.Trade, group string) *Aggregate {
	n := len(trades)
	if n == 0 {
		return &Aggregate{Group: group}
	}

	sorted := make([]*domain.Trade, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].EntryDate != sorted[j].EntryDate {
			return sorted[i].EntryDate < sorted[j].EntryDate
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	agg := &Aggregate{Group: group, TotalTrades: n}

	returns := make([]float64, n)
	var slHits, tpHits, techHits, expiries, gaps int
	for i, t := range sorted {
		returns[i] = t.ReturnPct
		agg.TotalProfit += t.ProfitJPY
		if t.Win() {
			agg.Wins++
		} else {
			agg.Losses++
		}
		switch t.ExitReason {
		case domain.ExitReasonStopLoss:
			slHits++
		case domain.ExitReasonTakeProfit:
			tpHits++
		case domain.ExitReasonTechnicalExit:
			techHits++
		case domain.ExitReasonTimeExpiry:
			expiries++
		}
		if t.DataGap {
			gaps++
		}
	}
	agg.WinRate = float64(agg.Wins) / float64(n)
	agg.StopLossRate = float64(slHits) / float64(n)
	agg.TakeProfitRate = float64(tpHits) / float64(n)
	agg.TechnicalRate = float64(techHits) / float64(n)
	agg.ExpiryRate = float64(expiries) / float64(n)
	agg.DataGapRate = float64(gaps) / float64(n)

	sortedReturns := make([]float64, n)
	copy(sortedReturns, returns)
	sort.Float64s(sortedReturns)

	agg.ReturnMean = mean(returns)
	agg.ReturnMedian = percentile(sortedReturns, 0.50)
	agg.ReturnP10 = percentile(sortedReturns, 0.10)
	agg.ReturnP90 = percentile(sortedReturns, 0.90)
	agg.ReturnStddev = stddev(returns, agg.ReturnMean)
	agg.MaxDrawdown = maxDrawdown(returns)
	agg.MaxConsecutiveLosses = maxConsecutiveLosses(sorted)

	return agg
}

// BySector slices trades by sector and computes one aggregate per sector,
// sorted by sector name.
func BySector(trades []*domain.Trade) []*Aggregate {
	groups := make(map[string][]*domain.Trade)
	for _, t := range trades {
		groups[t.Sector] = append(groups[t.Sector], t)
	}
	sectors := make([]string, 0, len(groups))
	for s := range groups {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)

	out := make([]*Aggregate, 0, len(sectors))
	for _, s := range sectors {
		out = append(out, Compute(groups[s], s))
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev uses the sample formula (n-1 denominator).
func stddev(values []float64, m float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// percentile uses linear interpolation over a pre-sorted slice.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// maxDrawdown is the worst peak-to-trough on cumulative returns, in
// chronological order.
func maxDrawdown(returns []float64) float64 {
	cumulative, peak, dd := 0.0, 0.0, 0.0
	for _, r := range returns {
		cumulative += r
		if cumulative > peak {
			peak = cumulative
		}
		if drop := peak - cumulative; drop > dd {
			dd = drop
		}
	}
	return dd
}

func maxConsecutiveLosses(sorted []*domain.Trade) int {
	maxRun, run := 0, 0
	for _, t := range sorted {
		if t.Win() {
			run = 0
			continue
		}
		run++
		if run > maxRun {
			maxRun = run
		}
	}
	return maxRun
}
