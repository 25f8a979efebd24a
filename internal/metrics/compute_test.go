package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"granville-signal-lab/internal/domain"
)

func trade(id string, entry domain.Date, ret float64, reason string, gap bool, sector string) *domain.Trade {
	return &domain.Trade{
		TradeID:    id,
		Ticker:     "7203",
		Sector:     sector,
		EntryDate:  entry,
		EntryPrice: 1000,
		ReturnPct:  ret,
		ProfitJPY:  1000 * domain.LotSize * ret / 100,
		ExitReason: reason,
		DataGap:    gap,
	}
}

func TestComputeEmpty(t *testing.T) {
	agg := Compute(nil, "")
	assert.Equal(t, 0, agg.TotalTrades)
	assert.Equal(t, 0.0, agg.WinRate)
}

func TestComputeBasicAggregates(t *testing.T) {
	trades := []*domain.Trade{
		trade("t1", domain.NewDate(2024, 1, 10), 5.0, domain.ExitReasonTakeProfit, false, "Tech"),
		trade("t2", domain.NewDate(2024, 1, 11), -3.5, domain.ExitReasonStopLoss, false, "Tech"),
		trade("t3", domain.NewDate(2024, 1, 12), 1.0, domain.ExitReasonTechnicalExit, false, "Autos"),
		trade("t4", domain.NewDate(2024, 1, 15), -1.0, domain.ExitReasonTimeExpiry, true, "Autos"),
	}

	agg := Compute(trades, "")
	require.Equal(t, 4, agg.TotalTrades)
	assert.Equal(t, 2, agg.Wins)
	assert.Equal(t, 2, agg.Losses)
	assert.InDelta(t, 0.5, agg.WinRate, 1e-12)
	assert.InDelta(t, 0.375, agg.ReturnMean, 1e-12)

	assert.InDelta(t, 0.25, agg.StopLossRate, 1e-12)
	assert.InDelta(t, 0.25, agg.TakeProfitRate, 1e-12)
	assert.InDelta(t, 0.25, agg.TechnicalRate, 1e-12)
	assert.InDelta(t, 0.25, agg.ExpiryRate, 1e-12)
	assert.InDelta(t, 0.25, agg.DataGapRate, 1e-12)

	// entry * 100 shares * ret%: 5000 - 3500 + 1000 - 1000
	assert.InDelta(t, 1500.0, agg.TotalProfit, 1e-9)
}

func TestComputeMedianInterpolates(t *testing.T) {
	trades := []*domain.Trade{
		trade("t1", domain.NewDate(2024, 1, 10), 1.0, domain.ExitReasonTimeExpiry, false, "Tech"),
		trade("t2", domain.NewDate(2024, 1, 11), 3.0, domain.ExitReasonTimeExpiry, false, "Tech"),
	}
	agg := Compute(trades, "")
	assert.InDelta(t, 2.0, agg.ReturnMedian, 1e-12)
}

func TestComputeMaxDrawdownAndLossStreak(t *testing.T) {
	// Chronological returns: +5, -3, -4, -2, +6. Peak after +5, trough
	// after the three losses: drawdown 9, streak 3.
	trades := []*domain.Trade{
		trade("t1", domain.NewDate(2024, 1, 10), 5, domain.ExitReasonTakeProfit, false, "Tech"),
		trade("t2", domain.NewDate(2024, 1, 11), -3, domain.ExitReasonStopLoss, false, "Tech"),
		trade("t3", domain.NewDate(2024, 1, 12), -4, domain.ExitReasonStopLoss, false, "Tech"),
		trade("t4", domain.NewDate(2024, 1, 15), -2, domain.ExitReasonStopLoss, false, "Tech"),
		trade("t5", domain.NewDate(2024, 1, 16), 6, domain.ExitReasonTakeProfit, false, "Tech"),
	}
	agg := Compute(trades, "")
	assert.InDelta(t, 9.0, agg.MaxDrawdown, 1e-12)
	assert.Equal(t, 3, agg.MaxConsecutiveLosses)
}

func TestComputeOrderIndependent(t *testing.T) {
	trades := []*domain.Trade{
		trade("t2", domain.NewDate(2024, 1, 11), -3, domain.ExitReasonStopLoss, false, "Tech"),
		trade("t1", domain.NewDate(2024, 1, 10), 5, domain.ExitReasonTakeProfit, false, "Tech"),
		trade("t3", domain.NewDate(2024, 1, 12), -4, domain.ExitReasonStopLoss, false, "Tech"),
	}
	reversed := []*domain.Trade{trades[2], trades[0], trades[1]}

	assert.Equal(t, Compute(trades, ""), Compute(reversed, ""))
}

func TestBySectorSortedGroups(t *testing.T) {
	trades := []*domain.Trade{
		trade("t1", domain.NewDate(2024, 1, 10), 5, domain.ExitReasonTakeProfit, false, "Tech"),
		trade("t2", domain.NewDate(2024, 1, 11), -3, domain.ExitReasonStopLoss, false, "Autos"),
		trade("t3", domain.NewDate(2024, 1, 12), 2, domain.ExitReasonTimeExpiry, false, "Tech"),
	}
	aggs := BySector(trades)
	require.Len(t, aggs, 2)
	assert.Equal(t, "Autos", aggs[0].Group)
	assert.Equal(t, 1, aggs[0].TotalTrades)
	assert.Equal(t, "Tech", aggs[1].Group)
	assert.Equal(t, 2, aggs[1].TotalTrades)
}
