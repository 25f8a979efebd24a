package reporting

import (
	"fmt"
	"strings"

	"granville-signal-lab/internal/domain"
)

// RenderLedgerCSV renders the trade ledger as a CSV string. Callers pass
// trades already sorted in their canonical order.
func RenderLedgerCSV(trades []*domain.Trade) string {
	var sb strings.Builder

	sb.WriteString("ticker,signal_date,signal_label,entry_date,entry_price,")
	sb.WriteString("exit_date,exit_price,exit_reason,return_pct,profit_jpy,hold_bars,data_gap\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.4f,%s,%.4f,%s,%.6f,%.2f,%d,%t\n",
			t.Ticker,
			t.SignalDate.String(),
			t.SignalLabel,
			t.EntryDate.String(),
			t.EntryPrice,
			t.ExitDate.String(),
			t.ExitPrice,
			t.ExitReason,
			t.ReturnPct,
			t.ProfitJPY,
			t.HoldBars,
			t.DataGap,
		))
	}

	return sb.String()
}
