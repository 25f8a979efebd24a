package postgres

import (
	"context"
	"fmt"
	"time"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeInsertQuery = `
	INSERT INTO trades (
		trade_id, signal_id, ticker, sector,
		signal_date, signal_label, entry_date, entry_price,
		current_stop, take_profit,
		exit_date, exit_price, exit_reason,
		return_pct, profit_jpy, hold_bars, mfe_pct, data_gap
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10,
		$11, $12, $13,
		$14, $15, $16, $17, $18
	)
`

const tradeSelectColumns = `
	trade_id, signal_id, ticker, sector,
	signal_date, signal_label, entry_date, entry_price,
	current_stop, take_profit,
	exit_date, exit_price, exit_reason,
	return_pct, profit_jpy, hold_bars, mfe_pct, data_gap
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) (err error) {
	defer func(start time.Time) { observe("trade_insert", start, err) }(time.Now())

	_, err = s.pool.Exec(ctx, tradeInsertQuery, tradeArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) (err error) {
	if len(trades) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("trade_insert_bulk", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if _, err := tx.Exec(ctx, tradeInsertQuery, tradeArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (t *domain.Trade, err error) {
	defer func(start time.Time) { observe("trade_get_by_id", start, err) }(time.Now())

	query := `SELECT ` + tradeSelectColumns + ` FROM trades WHERE trade_id = $1`
	row := s.pool.QueryRow(ctx, query, tradeID)

	t, err = scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetByTicker retrieves all trades for a ticker, ordered by entry date ASC.
func (s *TradeStore) GetByTicker(ctx context.Context, ticker string) (trades []*domain.Trade, err error) {
	defer func(start time.Time) { observe("trade_get_by_ticker", start, err) }(time.Now())

	query := `SELECT ` + tradeSelectColumns + ` FROM trades WHERE ticker = $1 ORDER BY entry_date ASC, trade_id ASC`
	rows, err := s.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query trades by ticker: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetAll retrieves every trade ordered by (entry date, trade_id) ASC.
func (s *TradeStore) GetAll(ctx context.Context) (trades []*domain.Trade, err error) {
	defer func(start time.Time) { observe("trade_get_all", start, err) }(time.Now())

	query := `SELECT ` + tradeSelectColumns + ` FROM trades ORDER BY entry_date ASC, trade_id ASC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func tradeArgs(t *domain.Trade) []any {
	return []any{
		t.TradeID, t.SignalID, t.Ticker, t.Sector,
		int(t.SignalDate), t.SignalLabel, int(t.EntryDate), t.EntryPrice,
		t.CurrentStop, t.TakeProfit,
		int(t.ExitDate), t.ExitPrice, t.ExitReason,
		t.ReturnPct, t.ProfitJPY, t.HoldBars, t.MaxFavorableExcursionPct, t.DataGap,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (*domain.Trade, error) {
	var t domain.Trade
	var signalDate, entryDate, exitDate int
	err := row.Scan(
		&t.TradeID, &t.SignalID, &t.Ticker, &t.Sector,
		&signalDate, &t.SignalLabel, &entryDate, &t.EntryPrice,
		&t.CurrentStop, &t.TakeProfit,
		&exitDate, &t.ExitPrice, &t.ExitReason,
		&t.ReturnPct, &t.ProfitJPY, &t.HoldBars, &t.MaxFavorableExcursionPct, &t.DataGap,
	)
	if err != nil {
		return nil, err
	}
	t.SignalDate = domain.Date(signalDate)
	t.EntryDate = domain.Date(entryDate)
	t.ExitDate = domain.Date(exitDate)
	return &t, nil
}

type pgxRows interface {
	rowScanner
	Next() bool
	Err() error
}

func scanTrades(rows pgxRows) ([]*domain.Trade, error) {
	var out []*domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return out, nil
}
