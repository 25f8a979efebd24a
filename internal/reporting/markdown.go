package reporting

import (
	"fmt"
	"strings"
	"time"

	"granville-signal-lab/internal/metrics"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.ConfigLabel != "" {
		sb.WriteString(fmt.Sprintf("Exit config: %s\n\n", r.ConfigLabel))
	}

	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Tickers | %d |\n", r.DataSummary.TickerCount))
	sb.WriteString(fmt.Sprintf("| Signals | %d |\n", r.DataSummary.SignalCount))
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", r.DataSummary.TradeCount))
	sb.WriteString(fmt.Sprintf("| Date Range Start | %d |\n", r.DataSummary.DateRangeStart))
	sb.WriteString(fmt.Sprintf("| Date Range End | %d |\n", r.DataSummary.DateRangeEnd))
	sb.WriteString("\n")

	sb.WriteString("## Overall Performance\n\n")
	if r.Overall != nil && r.Overall.TotalTrades > 0 {
		writeAggregateTable(&sb, []*metrics.Aggregate{r.Overall}, "Group")
	} else {
		sb.WriteString("No trades simulated.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Exit Breakdown\n\n")
	if r.Overall != nil && r.Overall.TotalTrades > 0 {
		sb.WriteString("| Exit | Share |\n")
		sb.WriteString("|------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Stop loss | %.2f%% |\n", r.Overall.StopLossRate*100))
		sb.WriteString(fmt.Sprintf("| Take profit | %.2f%% |\n", r.Overall.TakeProfitRate*100))
		sb.WriteString(fmt.Sprintf("| Technical | %.2f%% |\n", r.Overall.TechnicalRate*100))
		sb.WriteString(fmt.Sprintf("| Time expiry | %.2f%% |\n", r.Overall.ExpiryRate*100))
		sb.WriteString(fmt.Sprintf("| Data gap (subset of expiry) | %.2f%% |\n", r.Overall.DataGapRate*100))
	} else {
		sb.WriteString("No trades simulated.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Per-Sector Performance\n\n")
	if len(r.BySector) > 0 {
		writeAggregateTable(&sb, r.BySector, "Sector")
	} else {
		sb.WriteString("No sector data available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Per-Rule Performance\n\n")
	if len(r.ByRule) > 0 {
		sb.WriteString("| Rule | Trades | WinRate | MeanRet |\n")
		sb.WriteString("|------|--------|---------|--------|\n")
		for _, row := range r.ByRule {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f |\n",
				row.RuleLabel, row.Trades, row.WinRate, row.MeanRet))
		}
	} else {
		sb.WriteString("No rule breakdown available.\n")
	}
	sb.WriteString("\n")

	if r.Model != nil {
		writeModelSection(&sb, r.Model)
	}

	return sb.String()
}

func writeAggregateTable(sb *strings.Builder, aggs []*metrics.Aggregate, groupHeader string) {
	sb.WriteString(fmt.Sprintf("| %s | Trades | WinRate | Mean | Median | P10 | P90 | Stddev | MaxDD | MaxLoss | Profit |\n", groupHeader))
	sb.WriteString("|-------|--------|---------|------|--------|-----|-----|--------|-------|---------|--------|\n")
	for _, a := range aggs {
		group := a.Group
		if group == "" {
			group = "ALL"
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %d | %.0f |\n",
			group, a.TotalTrades, a.WinRate,
			a.ReturnMean, a.ReturnMedian, a.ReturnP10, a.ReturnP90, a.ReturnStddev,
			a.MaxDrawdown, a.MaxConsecutiveLosses, a.TotalProfit))
	}
}

func writeModelSection(sb *strings.Builder, m *ModelSection) {
	sb.WriteString("## Model Evaluation\n\n")
	sb.WriteString(fmt.Sprintf("AUC: %.4f | Accuracy: %.4f | Folds: %d (skipped %d)\n\n",
		m.AUC, m.Accuracy, m.FoldCount, m.Skipped))

	if len(m.Dropped) > 0 {
		sb.WriteString(fmt.Sprintf("Dropped features: %s\n\n", strings.Join(m.Dropped, ", ")))
	}

	sb.WriteString("### Quintile Analysis\n\n")
	if len(m.Quintiles) > 0 {
		sb.WriteString("| Quintile | Count | WinRate | MeanProb |\n")
		sb.WriteString("|----------|-------|---------|----------|\n")
		for _, q := range m.Quintiles {
			sb.WriteString(fmt.Sprintf("| %d | %d | %.4f | %.4f |\n",
				q.Quintile, q.Count, q.WinRate, q.MeanProb))
		}
	} else {
		sb.WriteString("No quintile data available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("### Threshold Sweep\n\n")
	if len(m.Sweep) > 0 {
		sb.WriteString("| Threshold | Kept | Filtered | KeptFrac | KeptWinRate | FilteredWinRate |\n")
		sb.WriteString("|-----------|------|----------|----------|-------------|----------------|\n")
		for _, s := range m.Sweep {
			sb.WriteString(fmt.Sprintf("| %.2f | %d | %d | %.4f | %.4f | %.4f |\n",
				s.Threshold, s.KeptCount, s.FilteredCount, s.KeptFraction,
				s.KeptWinRate, s.FilteredWinRate))
		}
	} else {
		sb.WriteString("No threshold sweep available.\n")
	}
	sb.WriteString("\n")
}
