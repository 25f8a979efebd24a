package postgres

import (
	"context"
	"fmt"
	"time"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

// MetaStore implements storage.MetaStore using PostgreSQL.
type MetaStore struct {
	pool *Pool
}

// NewMetaStore creates a new MetaStore.
func NewMetaStore(pool *Pool) *MetaStore {
	return &MetaStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MetaStore = (*MetaStore)(nil)

// Insert adds metadata for a ticker. Returns ErrDuplicateKey if it exists.
func (s *MetaStore) Insert(ctx context.Context, m *domain.TickerMeta) (err error) {
	defer func(start time.Time) { observe("meta_insert", start, err) }(time.Now())

	query := `INSERT INTO ticker_meta (ticker, name, sector) VALUES ($1, $2, $3)`
	if _, err = s.pool.Exec(ctx, query, m.Ticker, m.Name, m.Sector); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ticker meta: %w", err)
	}
	return nil
}

// GetByTicker retrieves metadata. Returns ErrNotFound if not exists.
func (s *MetaStore) GetByTicker(ctx context.Context, ticker string) (_ *domain.TickerMeta, err error) {
	defer func(start time.Time) { observe("meta_get_by_ticker", start, err) }(time.Now())

	query := `SELECT ticker, name, sector FROM ticker_meta WHERE ticker = $1`
	var m domain.TickerMeta
	err = s.pool.QueryRow(ctx, query, ticker).Scan(&m.Ticker, &m.Name, &m.Sector)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ticker meta: %w", err)
	}
	return &m, nil
}

// GetAll retrieves all metadata keyed by ticker.
func (s *MetaStore) GetAll(ctx context.Context) (_ map[string]domain.TickerMeta, err error) {
	defer func(start time.Time) { observe("meta_get_all", start, err) }(time.Now())

	query := `SELECT ticker, name, sector FROM ticker_meta`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ticker meta: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.TickerMeta)
	for rows.Next() {
		var m domain.TickerMeta
		if err := rows.Scan(&m.Ticker, &m.Name, &m.Sector); err != nil {
			return nil, fmt.Errorf("scan ticker meta: %w", err)
		}
		out[m.Ticker] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticker meta: %w", err)
	}
	return out, nil
}
