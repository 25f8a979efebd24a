package storage

import (
	"context"

	"granville-signal-lab/internal/domain"
)

// Series name constants for the SeriesStore.
const (
	SeriesIndex        = "index"
	SeriesMacroLeading = "macro_leading"
)

// BarStore provides access to daily OHLCV bars.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (ticker, date).
	InsertBulk(ctx context.Context, bars []*domain.PriceBar) error

	// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.PriceBar, error)

	// GetByDateRange retrieves bars for a ticker within [start, end] (inclusive).
	GetByDateRange(ctx context.Context, ticker string, start, end domain.Date) ([]*domain.PriceBar, error)

	// Tickers lists all tickers with at least one bar, sorted ASC.
	Tickers(ctx context.Context) ([]string, error)
}

// SeriesStore provides access to date-keyed index/macro series.
type SeriesStore interface {
	// InsertBulk adds points to a named series. Fails entire batch on duplicate (name, date).
	InsertBulk(ctx context.Context, name string, points []domain.IndexPoint) error

	// Get retrieves a named series, ordered by date ASC.
	Get(ctx context.Context, name string) ([]domain.IndexPoint, error)
}

// MetaStore provides access to static per-ticker metadata.
type MetaStore interface {
	// Insert adds metadata for a ticker. Returns ErrDuplicateKey if it exists.
	Insert(ctx context.Context, m *domain.TickerMeta) error

	// GetByTicker retrieves metadata. Returns ErrNotFound if not exists.
	GetByTicker(ctx context.Context, ticker string) (*domain.TickerMeta, error)

	// GetAll retrieves all metadata keyed by ticker.
	GetAll(ctx context.Context) (map[string]domain.TickerMeta, error)
}

// FeatureStore provides access to derived feature rows.
type FeatureStore interface {
	// InsertBulk adds multiple rows. Fails entire batch on duplicate (ticker, date).
	InsertBulk(ctx context.Context, rows []*domain.FeatureRow) error

	// GetByTicker retrieves all rows for a ticker, ordered by date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.FeatureRow, error)
}

// TradeStore provides access to the simulated trade ledger.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetByTicker retrieves all trades for a ticker, ordered by entry date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.Trade, error)

	// GetAll retrieves every trade ordered by (entry date, trade_id) ASC.
	GetAll(ctx context.Context) ([]*domain.Trade, error)
}

// ExampleStore provides access to frozen training examples.
type ExampleStore interface {
	// InsertBulk adds multiple examples.
	InsertBulk(ctx context.Context, examples []*domain.TrainingExample) error

	// GetAll retrieves every example ordered by (signal date, ticker) ASC.
	GetAll(ctx context.Context) ([]*domain.TrainingExample, error)
}
