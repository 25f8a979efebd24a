package clickhouse

import (
	"context"
	"fmt"
	"time"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

// FeatureStore implements storage.FeatureStore using ClickHouse. Optional
// columns map to Nullable(Float64); a nil pointer round-trips as NULL, not
// as zero.
type FeatureStore struct {
	conn *Conn
}

// NewFeatureStore creates a new FeatureStore.
func NewFeatureStore(conn *Conn) *FeatureStore {
	return &FeatureStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

const featureColumns = `
	ticker, date, sector, close, volume, prev_close,
	sma5, sma20, sma25, sma60,
	dev_sma20_pct, prev_dev_sma20_pct, sma20_slope3, prev_sma5, prev_sma20,
	rsi9, rsi14, atr14, atr_pct, hv5, hv10, hv20,
	macd_hist, boll_width, boll_pos,
	volume_ratio5, volume_ratio20, return1_pct, return5_pct, return10_pct,
	weekday_num,
	index_return1_pct, index_return5_pct, index_hv20, index_dev_sma20_pct,
	sector_momentum5
`

// InsertBulk adds multiple rows. Fails entire batch on duplicate (ticker, date).
func (s *FeatureStore) InsertBulk(ctx context.Context, rows []*domain.FeatureRow) (err error) {
	if len(rows) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("feature_insert_bulk", start, err) }(time.Now())

	type key struct {
		ticker string
		date   domain.Date
	}
	seen := make(map[key]struct{}, len(rows))
	for _, r := range rows {
		k := key{r.Ticker, r.Date}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, r := range rows {
		exists, err := s.exists(ctx, r.Ticker, r.Date)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO feature_rows (`+featureColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		if err := batch.Append(
			r.Ticker, int32(r.Date), r.Sector, r.Close, r.Volume, r.PrevClose,
			r.SMA5, r.SMA20, r.SMA25, r.SMA60,
			r.DevSMA20Pct, r.PrevDevSMA20Pct, r.SMA20Slope3, r.PrevSMA5, r.PrevSMA20,
			r.RSI9, r.RSI14, r.ATR14, r.ATRPct, r.HV5, r.HV10, r.HV20,
			r.MACDHist, r.BollWidth, r.BollPos,
			r.VolumeRatio5, r.VolumeRatio20, r.Return1Pct, r.Return5Pct, r.Return10Pct,
			r.WeekdayNum,
			r.IndexReturn1Pct, r.IndexReturn5Pct, r.IndexHV20, r.IndexDevSMA20Pct,
			r.SectorMomentum5,
		); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTicker retrieves all rows for a ticker, ordered by date ASC.
func (s *FeatureStore) GetByTicker(ctx context.Context, ticker string) (_ []*domain.FeatureRow, err error) {
	defer func(start time.Time) { observe("feature_get_by_ticker", start, err) }(time.Now())

	query := `
		SELECT ` + featureColumns + `
		FROM feature_rows
		WHERE ticker = ?
		ORDER BY date ASC
	`
	rows, err := s.conn.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query features by ticker: %w", err)
	}
	defer rows.Close()

	var out []*domain.FeatureRow
	for rows.Next() {
		var r domain.FeatureRow
		var date int32
		if err := rows.Scan(
			&r.Ticker, &date, &r.Sector, &r.Close, &r.Volume, &r.PrevClose,
			&r.SMA5, &r.SMA20, &r.SMA25, &r.SMA60,
			&r.DevSMA20Pct, &r.PrevDevSMA20Pct, &r.SMA20Slope3, &r.PrevSMA5, &r.PrevSMA20,
			&r.RSI9, &r.RSI14, &r.ATR14, &r.ATRPct, &r.HV5, &r.HV10, &r.HV20,
			&r.MACDHist, &r.BollWidth, &r.BollPos,
			&r.VolumeRatio5, &r.VolumeRatio20, &r.Return1Pct, &r.Return5Pct, &r.Return10Pct,
			&r.WeekdayNum,
			&r.IndexReturn1Pct, &r.IndexReturn5Pct, &r.IndexHV20, &r.IndexDevSMA20Pct,
			&r.SectorMomentum5,
		); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		r.Date = domain.Date(date)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature rows: %w", err)
	}
	return out, nil
}

func (s *FeatureStore) exists(ctx context.Context, ticker string, date domain.Date) (bool, error) {
	query := `SELECT count() FROM feature_rows WHERE ticker = ? AND date = ?`
	var count uint64
	if err := s.conn.QueryRow(ctx, query, ticker, int32(date)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
