package clickhouse

import (
	"context"
	"fmt"
	"time"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate (ticker, date).
// MergeTree does not enforce uniqueness, so duplicates are checked before
// the batch goes out.
func (s *BarStore) InsertBulk(ctx context.Context, bars []*domain.PriceBar) (err error) {
	if len(bars) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("bar_insert_bulk", start, err) }(time.Now())

	type key struct {
		ticker string
		date   domain.Date
	}
	seen := make(map[key]struct{}, len(bars))
	for _, b := range bars {
		k := key{b.Ticker, b.Date}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, b := range bars {
		exists, err := s.exists(ctx, b.Ticker, b.Date)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_bars (ticker, date, open, high, low, close, volume)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		if err := batch.Append(
			b.Ticker, int32(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
func (s *BarStore) GetByTicker(ctx context.Context, ticker string) (_ []*domain.PriceBar, err error) {
	defer func(start time.Time) { observe("bar_get_by_ticker", start, err) }(time.Now())

	query := `
		SELECT ticker, date, open, high, low, close, volume
		FROM price_bars
		WHERE ticker = ?
		ORDER BY date ASC
	`
	rows, err := s.conn.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query bars by ticker: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByDateRange retrieves bars for a ticker within [start, end] (inclusive).
func (s *BarStore) GetByDateRange(ctx context.Context, ticker string, start, end domain.Date) (_ []*domain.PriceBar, err error) {
	defer func(began time.Time) { observe("bar_get_by_date_range", began, err) }(time.Now())

	query := `
		SELECT ticker, date, open, high, low, close, volume
		FROM price_bars
		WHERE ticker = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	rows, err := s.conn.Query(ctx, query, ticker, int32(start), int32(end))
	if err != nil {
		return nil, fmt.Errorf("query bars by date range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// Tickers lists all tickers with at least one bar, sorted ASC.
func (s *BarStore) Tickers(ctx context.Context) (_ []string, err error) {
	defer func(start time.Time) { observe("bar_tickers", start, err) }(time.Now())

	query := `SELECT DISTINCT ticker FROM price_bars ORDER BY ticker ASC`
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickers: %w", err)
	}
	return out, nil
}

func (s *BarStore) exists(ctx context.Context, ticker string, date domain.Date) (bool, error) {
	query := `SELECT count() FROM price_bars WHERE ticker = ? AND date = ?`
	var count uint64
	if err := s.conn.QueryRow(ctx, query, ticker, int32(date)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanBars(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*domain.PriceBar, error) {
	var out []*domain.PriceBar
	for rows.Next() {
		var b domain.PriceBar
		var date int32
		if err := rows.Scan(&b.Ticker, &date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = domain.Date(date)
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}
	return out, nil
}
