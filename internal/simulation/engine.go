// Package simulation replays signals bar-by-bar under a fixed exit policy:
// stop-loss, then take-profit, then technical exits, then time expiry,
// with an upward-only trailing stop ratchet.
package simulation

import (
	"errors"
	"fmt"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/idhash"
	"granville-signal-lab/internal/lookup"
)

// Engine errors.
var (
	// ErrNoNextSession means the signal fired on the last available
	// trading day, so no trade materializes. A normal boundary
	// condition, not a data error.
	ErrNoNextSession = errors.New("no next trading session after signal date")

	ErrNoBars = errors.New("no price bars for ticker")
)

// Engine simulates trades for one immutable configuration. Trailing rules
// are sorted by threshold descending exactly once at construction.
type Engine struct {
	cfg domain.SimConfig
}

// NewEngine validates and normalizes the configuration.
func NewEngine(cfg domain.SimConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &Engine{cfg: cfg}, nil
}

// Config returns the normalized configuration.
func (e *Engine) Config() domain.SimConfig { return e.cfg }

// Simulate opens a position at the open after the signal date and walks
// forward one trading day at a time until an exit fires. Feature rows for
// the same ticker drive the technical exit checks; a missing row means
// those checks do not apply that day.
//
// Returns ErrNoNextSession when the signal has no following trading day.
func (e *Engine) Simulate(sig *domain.Signal, bars []*domain.PriceBar, rows []*domain.FeatureRow) (*domain.Trade, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBars, sig.Ticker)
	}

	entryBar, entryIdx, err := lookup.NextBar(bars, sig.SignalDate)
	if err != nil {
		if errors.Is(err, lookup.ErrNoNextBar) {
			return nil, fmt.Errorf("%w: %s signal on %s", ErrNoNextSession, sig.Ticker, sig.SignalDate)
		}
		return nil, err
	}

	rowByDate := make(map[domain.Date]*domain.FeatureRow, len(rows))
	for _, r := range rows {
		rowByDate[r.Date] = r
	}

	entryPrice := entryBar.Open
	trade := &domain.Trade{
		SignalID:    sig.SignalID,
		Ticker:      sig.Ticker,
		Sector:      sig.Sector,
		SignalDate:  sig.SignalDate,
		SignalLabel: sig.Label(),
		EntryDate:   entryBar.Date,
		EntryPrice:  entryPrice,
		CurrentStop: entryPrice * (1 - e.cfg.StopLossPct/100),
	}
	trade.TradeID = idhash.ComputeTradeID(sig.SignalID, e.cfg.Digest(), entryBar.Date)

	if e.cfg.TakeProfitPct != nil {
		tp := entryPrice * (1 + *e.cfg.TakeProfitPct/100)
		trade.TakeProfit = &tp
	}

	// stagedStop is a ratchet computed today that, in the next-day-apply
	// variant, only becomes effective from the following bar.
	var stagedStop *float64

	// A technical exit or scheduled expiry fills at the next open.
	pendingExitReason := ""

	meanReversionTarget := sig.HasType(domain.RulePullback) || sig.HasType(domain.RuleDeepPullback)

	for i := entryIdx; i < len(bars); i++ {
		bar := bars[i]
		holdDay := i - entryIdx + 1
		trade.HoldBars = holdDay

		// Exit scheduled on the previous close fills at this open.
		if pendingExitReason != "" {
			closeTrade(trade, bar.Date, bar.Open, pendingExitReason)
			return trade, nil
		}

		// A stop staged yesterday takes effect from today.
		if stagedStop != nil {
			if *stagedStop > trade.CurrentStop {
				trade.CurrentStop = *stagedStop
			}
			stagedStop = nil
		}

		// Update the running peak unrealized gain, then ratchet. The stop
		// can only move up; the first matching threshold (descending) wins.
		if gain := (bar.High/entryPrice - 1) * 100; gain > trade.MaxFavorableExcursionPct {
			trade.MaxFavorableExcursionPct = gain
		}
		for _, rule := range e.cfg.TrailingRules {
			if trade.MaxFavorableExcursionPct < rule.GainThresholdPct {
				continue
			}
			candidate := entryPrice * (1 + rule.NewStopPct/100)
			if e.cfg.TrailNextDayApply {
				if candidate > trade.CurrentStop && (stagedStop == nil || candidate > *stagedStop) {
					stagedStop = &candidate
				}
			} else if candidate > trade.CurrentStop {
				trade.CurrentStop = candidate
			}
			break
		}

		// 1. Stop-loss: intraday resting stop, checked on the Low.
		if bar.Low <= trade.CurrentStop {
			closeTrade(trade, bar.Date, trade.CurrentStop, domain.ExitReasonStopLoss)
			return trade, nil
		}

		// 2. Take-profit: intraday limit, checked on the High.
		if trade.TakeProfit != nil && bar.High >= *trade.TakeProfit {
			closeTrade(trade, bar.Date, *trade.TakeProfit, domain.ExitReasonTakeProfit)
			return trade, nil
		}

		// 3. Technical exits: evaluated on the Close, fill at next open.
		if e.cfg.UseTechnicalExits {
			if reason := e.technicalExit(trade, bar, rowByDate[bar.Date], holdDay, meanReversionTarget); reason != "" {
				pendingExitReason = reason
				continue
			}
		}

		// 4. Max-hold expiry.
		if holdDay >= e.cfg.MaxHoldDays {
			if e.cfg.ExpiryAtNextOpen {
				pendingExitReason = domain.ExitReasonTimeExpiry
				continue
			}
			closeTrade(trade, bar.Date, bar.Close, domain.ExitReasonTimeExpiry)
			return trade, nil
		}
	}

	// The feed ended mid-hold. Truncate at the last known close and flag
	// the gap so aggregates can separate it from a natural expiry.
	// An expiry already scheduled for the (missing) next open is still a
	// natural time-out; everything else is a feed truncation.
	last := bars[len(bars)-1]
	closeTrade(trade, last.Date, last.Close, domain.ExitReasonTimeExpiry)
	trade.DataGap = pendingExitReason != domain.ExitReasonTimeExpiry
	return trade, nil
}

// technicalExit returns the exit reason to schedule for the next open, or
// "" when no rule fires. All checks treat missing inputs as rule-off.
func (e *Engine) technicalExit(trade *domain.Trade, bar *domain.PriceBar, row *domain.FeatureRow, holdDay int, meanReversion bool) string {
	// Mean-reversion target: a dip-buy entry exits once the close is back
	// at or above SMA20. Breakout entries sit above SMA20 from day one,
	// so the target only applies to pullback-type signals.
	if meanReversion && row != nil && row.SMA20 != nil && bar.Close >= *row.SMA20 {
		return domain.ExitReasonTechnicalExit
	}

	// Dead cross: SMA5 drops below SMA20.
	if row != nil && row.SMA5 != nil && row.SMA20 != nil &&
		row.PrevSMA5 != nil && row.PrevSMA20 != nil &&
		*row.PrevSMA5 >= *row.PrevSMA20 && *row.SMA5 < *row.SMA20 {
		return domain.ExitReasonTechnicalExit
	}

	// Time-decay cut: still below entry on the checkpoint day's close.
	if e.cfg.TimeDecayCutDay > 0 && holdDay == e.cfg.TimeDecayCutDay && bar.Close < trade.EntryPrice {
		return domain.ExitReasonTechnicalExit
	}

	return ""
}

func closeTrade(t *domain.Trade, date domain.Date, price float64, reason string) {
	t.ExitDate = date
	t.ExitPrice = price
	t.ExitReason = reason
	t.ReturnPct = (price/t.EntryPrice - 1) * 100
	t.ProfitJPY = t.EntryPrice * domain.LotSize * t.ReturnPct / 100
}
