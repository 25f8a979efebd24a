package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/observability"
	"granville-signal-lab/internal/storage"
)

// Runner drives the engine across a batch of signals, loading inputs from
// stores and persisting the resulting trades.
type Runner struct {
	engine       *Engine
	barStore     storage.BarStore
	featureStore storage.FeatureStore
	tradeStore   storage.TradeStore
	log          zerolog.Logger
}

// NewRunner wires an engine to its stores.
func NewRunner(engine *Engine, barStore storage.BarStore, featureStore storage.FeatureStore, tradeStore storage.TradeStore, log zerolog.Logger) *Runner {
	return &Runner{
		engine:       engine,
		barStore:     barStore,
		featureStore: featureStore,
		tradeStore:   tradeStore,
		log:          log,
	}
}

// RunAll simulates every signal and persists the trades in one batch.
// Signals whose date has no following session are skipped, not failed.
// Bars and feature rows are cached per ticker across signals.
func (r *Runner) RunAll(ctx context.Context, signals []*domain.Signal) ([]*domain.Trade, error) {
	barCache := make(map[string][]*domain.PriceBar)
	rowCache := make(map[string][]*domain.FeatureRow)

	trades := make([]*domain.Trade, 0, len(signals))
	skipped := 0

	for _, sig := range signals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, ok := barCache[sig.Ticker]
		if !ok {
			var err error
			bars, err = r.barStore.GetByTicker(ctx, sig.Ticker)
			if err != nil {
				return nil, fmt.Errorf("load bars for %s: %w", sig.Ticker, err)
			}
			barCache[sig.Ticker] = bars
		}

		rows, ok := rowCache[sig.Ticker]
		if !ok {
			var err error
			rows, err = r.featureStore.GetByTicker(ctx, sig.Ticker)
			if err != nil {
				return nil, fmt.Errorf("load features for %s: %w", sig.Ticker, err)
			}
			rowCache[sig.Ticker] = rows
		}

		trade, err := r.engine.Simulate(sig, bars, rows)
		if err != nil {
			if errors.Is(err, ErrNoNextSession) {
				skipped++
				observability.RecordSignalSkipped()
				r.log.Debug().
					Str("ticker", sig.Ticker).
					Stringer("signal_date", sig.SignalDate).
					Msg("signal on last session, no trade")
				continue
			}
			return nil, fmt.Errorf("simulate %s: %w", sig.SignalID, err)
		}

		trades = append(trades, trade)
		observability.RecordTradeSimulated(trade.ExitReason)
	}

	if len(trades) > 0 {
		if err := r.tradeStore.InsertBulk(ctx, trades); err != nil {
			return nil, fmt.Errorf("persist trades: %w", err)
		}
	}

	r.log.Info().
		Int("signals", len(signals)).
		Int("trades", len(trades)).
		Int("skipped", skipped).
		Msg("simulation batch complete")

	return trades, nil
}
