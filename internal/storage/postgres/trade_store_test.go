package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
	. "granville-signal-lab/internal/storage/postgres"
)

func testTrade(tradeID string, entry domain.Date) *domain.Trade {
	return &domain.Trade{
		TradeID:     tradeID,
		SignalID:    "sig-" + tradeID,
		Ticker:      "7203",
		Sector:      "Autos",
		SignalDate:  entry - 1,
		SignalLabel: "A",
		EntryDate:   entry,
		EntryPrice:  2400,
		CurrentStop: 2316,
		TakeProfit:  ptr(2520.0),
		ExitDate:    entry + 5,
		ExitPrice:   2520,
		ExitReason:  domain.ExitReasonTakeProfit,
		ReturnPct:   5.0,
		ProfitJPY:   12000,
		HoldBars:    4,

		MaxFavorableExcursionPct: 5.5,
	}
}

func TestTradeStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewTradeStore(pool)
	trade := testTrade("trade-001", domain.NewDate(2024, 3, 11))

	require.NoError(t, store.Insert(ctx, trade))

	got, err := store.GetByID(ctx, "trade-001")
	require.NoError(t, err)
	assert.Equal(t, trade, got)

	// Duplicate trade_id rejected.
	assert.ErrorIs(t, store.Insert(ctx, trade), storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewTradeStore(pool)
	require.NoError(t, store.Insert(ctx, testTrade("dup", domain.NewDate(2024, 3, 11))))

	batch := []*domain.Trade{
		testTrade("new-1", domain.NewDate(2024, 3, 12)),
		testTrade("dup", domain.NewDate(2024, 3, 13)),
	}
	assert.ErrorIs(t, store.InsertBulk(ctx, batch), storage.ErrDuplicateKey)

	// The whole batch rolled back; new-1 must not exist.
	_, err := store.GetByID(ctx, "new-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewTradeStore(pool)
	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{
		testTrade("b", domain.NewDate(2024, 3, 12)),
		testTrade("a", domain.NewDate(2024, 3, 12)),
		testTrade("c", domain.NewDate(2024, 3, 11)),
	}))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].TradeID)
	assert.Equal(t, "a", all[1].TradeID)
	assert.Equal(t, "b", all[2].TradeID)
}

func TestExampleStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewExampleStore(pool)
	examples := []*domain.TrainingExample{
		{
			Ticker:      "7203",
			SignalDate:  domain.NewDate(2024, 3, 11),
			SignalLabel: "A",
			Features: &domain.FeatureRow{
				Ticker:      "7203",
				Date:        domain.NewDate(2024, 3, 11),
				Sector:      "Autos",
				Close:       2400,
				Volume:      500000,
				DevSMA20Pct: ptr(-4.2),
				RSI14:       ptr(38.0),
				WeekdayNum:  1,
			},
			ReturnPct: 5.0,
			Win:       true,
		},
	}
	require.NoError(t, store.InsertBulk(ctx, examples))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, examples[0], got[0])
}
