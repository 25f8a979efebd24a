package postgres

import (
	"context"
	"fmt"
	"time"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

// SeriesStore implements storage.SeriesStore using PostgreSQL.
type SeriesStore struct {
	pool *Pool
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(pool *Pool) *SeriesStore {
	return &SeriesStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// InsertBulk adds points to a named series. Fails entire batch on duplicate (name, date).
func (s *SeriesStore) InsertBulk(ctx context.Context, name string, points []domain.IndexPoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("series_insert_bulk", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO series_points (series_name, date, value) VALUES ($1, $2, $3)`
	for _, p := range points {
		if _, err := tx.Exec(ctx, query, name, int(p.Date), p.Value); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert series point: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get retrieves a named series, ordered by date ASC.
func (s *SeriesStore) Get(ctx context.Context, name string) (_ []domain.IndexPoint, err error) {
	defer func(start time.Time) { observe("series_get", start, err) }(time.Now())

	query := `SELECT date, value FROM series_points WHERE series_name = $1 ORDER BY date ASC`
	rows, err := s.pool.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var out []domain.IndexPoint
	for rows.Next() {
		var date int
		var p domain.IndexPoint
		if err := rows.Scan(&date, &p.Value); err != nil {
			return nil, fmt.Errorf("scan series point: %w", err)
		}
		p.Date = domain.Date(date)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series points: %w", err)
	}
	return out, nil
}
