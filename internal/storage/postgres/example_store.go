package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

// ExampleStore implements storage.ExampleStore using PostgreSQL. The
// feature row is frozen as JSONB so retraining replays an exact snapshot
// even after the feature pipeline changes.
type ExampleStore struct {
	pool *Pool
}

// NewExampleStore creates a new ExampleStore.
func NewExampleStore(pool *Pool) *ExampleStore {
	return &ExampleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ExampleStore = (*ExampleStore)(nil)

// InsertBulk adds multiple examples.
func (s *ExampleStore) InsertBulk(ctx context.Context, examples []*domain.TrainingExample) (err error) {
	if len(examples) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("example_insert_bulk", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO training_examples (
			ticker, signal_date, signal_label, features, return_pct, win
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range examples {
		featJSON, err := json.Marshal(e.Features)
		if err != nil {
			return fmt.Errorf("marshal features: %w", err)
		}
		if _, err := tx.Exec(ctx, query,
			e.Ticker, int(e.SignalDate), e.SignalLabel, featJSON, e.ReturnPct, e.Win,
		); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert training example: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves every example ordered by (signal date, ticker) ASC.
func (s *ExampleStore) GetAll(ctx context.Context) (out []*domain.TrainingExample, err error) {
	defer func(start time.Time) { observe("example_get_all", start, err) }(time.Now())

	query := `
		SELECT ticker, signal_date, signal_label, features, return_pct, win
		FROM training_examples
		ORDER BY signal_date ASC, ticker ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query training examples: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.TrainingExample
		var signalDate int
		var featJSON []byte
		if err := rows.Scan(&e.Ticker, &signalDate, &e.SignalLabel, &featJSON, &e.ReturnPct, &e.Win); err != nil {
			return nil, fmt.Errorf("scan training example: %w", err)
		}
		e.SignalDate = domain.Date(signalDate)
		if len(featJSON) > 0 {
			var row domain.FeatureRow
			if err := json.Unmarshal(featJSON, &row); err != nil {
				return nil, fmt.Errorf("unmarshal features: %w", err)
			}
			e.Features = &row
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training examples: %w", err)
	}
	return out, nil
}
