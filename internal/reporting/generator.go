package reporting

import (
	"context"
	"sort"
	"time"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/metrics"
	"granville-signal-lab/internal/storage"
	"granville-signal-lab/internal/walkforward"
)

// Generator produces reports from stored data.
type Generator struct {
	tradeStore storage.TradeStore
	barStore   storage.BarStore
	now        func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeStore, barStore storage.BarStore) *Generator {
	return &Generator{
		tradeStore: tradeStore,
		barStore:   barStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete backtest report. wf may be nil when no
// walk-forward evaluation ran.
func (g *Generator) Generate(ctx context.Context, configLabel string, wf *walkforward.Result) (*Report, error) {
	trades, err := g.tradeStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := g.generateDataSummary(ctx, trades)
	if err != nil {
		return nil, err
	}

	r := &Report{
		GeneratedAt: g.now(),
		ConfigLabel: configLabel,
		DataSummary: *summary,
		Overall:     metrics.Compute(trades, ""),
		BySector:    metrics.BySector(trades),
		ByRule:      generateRuleBreakdown(trades),
	}

	if wf != nil {
		r.Model = buildModelSection(wf)
	}

	return r, nil
}

func (g *Generator) generateDataSummary(ctx context.Context, trades []*domain.Trade) (*DataSummary, error) {
	tickers, err := g.barStore.Tickers(ctx)
	if err != nil {
		return nil, err
	}

	signalSet := make(map[string]struct{})
	var start, end domain.Date
	for _, t := range trades {
		signalSet[t.SignalID] = struct{}{}
		if start == 0 || t.EntryDate < start {
			start = t.EntryDate
		}
		if t.ExitDate > end {
			end = t.ExitDate
		}
	}

	return &DataSummary{
		TickerCount:    len(tickers),
		SignalCount:    len(signalSet),
		TradeCount:     len(trades),
		DateRangeStart: int(start),
		DateRangeEnd:   int(end),
	}, nil
}

// generateRuleBreakdown groups trades by their composite rule label.
func generateRuleBreakdown(trades []*domain.Trade) []RuleBreakdownRow {
	groups := make(map[string][]*domain.Trade)
	for _, t := range trades {
		groups[t.SignalLabel] = append(groups[t.SignalLabel], t)
	}

	labels := make([]string, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	rows := make([]RuleBreakdownRow, 0, len(labels))
	for _, l := range labels {
		group := groups[l]
		wins := 0
		sum := 0.0
		for _, t := range group {
			if t.Win() {
				wins++
			}
			sum += t.ReturnPct
		}
		rows = append(rows, RuleBreakdownRow{
			RuleLabel: l,
			Trades:    len(group),
			WinRate:   float64(wins) / float64(len(group)),
			MeanRet:   sum / float64(len(group)),
		})
	}
	return rows
}

func buildModelSection(wf *walkforward.Result) *ModelSection {
	skipped := 0
	for _, f := range wf.Folds {
		if f.Skipped {
			skipped++
		}
	}
	return &ModelSection{
		AUC:       wf.AUC,
		Accuracy:  wf.Accuracy,
		FoldCount: len(wf.Folds),
		Skipped:   skipped,
		Quintiles: wf.Quintiles,
		Sweep:     wf.Sweep,
		Dropped:   wf.DroppedNames,
	}
}
