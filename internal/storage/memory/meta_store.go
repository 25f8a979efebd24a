package memory

import (
	"context"
	"sync"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

// MetaStore is an in-memory implementation of storage.MetaStore.
type MetaStore struct {
	mu   sync.RWMutex
	data map[string]domain.TickerMeta
}

// NewMetaStore creates a new in-memory metadata store.
func NewMetaStore() *MetaStore {
	return &MetaStore{data: make(map[string]domain.TickerMeta)}
}

var _ storage.MetaStore = (*MetaStore)(nil)

// Insert adds metadata for a ticker. Returns ErrDuplicateKey if it exists.
func (s *MetaStore) Insert(_ context.Context, m *domain.TickerMeta) error {
	if m == nil || m.Ticker == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.Ticker]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[m.Ticker] = *m
	return nil
}

// GetByTicker retrieves metadata. Returns ErrNotFound if not exists.
func (s *MetaStore) GetByTicker(_ context.Context, ticker string) (*domain.TickerMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[ticker]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := m
	return &cp, nil
}

// GetAll retrieves all metadata keyed by ticker.
func (s *MetaStore) GetAll(_ context.Context) (map[string]domain.TickerMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.TickerMeta, len(s.data))
	for k, v := range s.data {
		result[k] = v
	}
	return result, nil
}
