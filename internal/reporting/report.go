// Package reporting renders backtest and training results as Markdown
// and CSV documents.
package reporting

import (
	"time"

	"granville-signal-lab/internal/metrics"
	"granville-signal-lab/internal/walkforward"
)

// Report is the full backtest report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	ConfigLabel string // human label for the simulated exit config

	// Data Summary
	DataSummary DataSummary

	// Overall trade aggregates, then per-sector slices (sorted by sector).
	Overall   *metrics.Aggregate
	BySector  []*metrics.Aggregate
	ByRule    []RuleBreakdownRow

	// Model evaluation, present only when a walk-forward run happened.
	Model *ModelSection
}

// DataSummary describes the simulated universe.
type DataSummary struct {
	TickerCount    int
	SignalCount    int
	TradeCount     int
	DateRangeStart int // YYYYMMDD
	DateRangeEnd   int // YYYYMMDD
}

// RuleBreakdownRow aggregates trades by the composite rule label that
// produced them ("A", "A+B", ...).
type RuleBreakdownRow struct {
	RuleLabel string
	Trades    int
	WinRate   float64
	MeanRet   float64
}

// ModelSection carries the walk-forward evaluation tables.
type ModelSection struct {
	AUC       float64
	Accuracy  float64
	FoldCount int
	Skipped   int
	Quintiles []walkforward.QuintileRow
	Sweep     []walkforward.SweepRow
	Dropped   []string
}
