package memory

import (
	"context"
	"sort"
	"sync"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

type seriesKey struct {
	name string
	date domain.Date
}

// SeriesStore is an in-memory implementation of storage.SeriesStore.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[seriesKey]float64
}

// NewSeriesStore creates a new in-memory series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{data: make(map[seriesKey]float64)}
}

var _ storage.SeriesStore = (*SeriesStore)(nil)

// InsertBulk adds points to a named series. Fails entire batch on duplicate (name, date).
func (s *SeriesStore) InsertBulk(_ context.Context, name string, points []domain.IndexPoint) error {
	if name == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[seriesKey]struct{}, len(points))
	for _, p := range points {
		k := seriesKey{name, p.Date}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for _, p := range points {
		s.data[seriesKey{name, p.Date}] = p.Value
	}
	return nil
}

// Get retrieves a named series, ordered by date ASC.
func (s *SeriesStore) Get(_ context.Context, name string) ([]domain.IndexPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.IndexPoint
	for k, v := range s.data {
		if k.name == name {
			result = append(result, domain.IndexPoint{Date: k.date, Value: v})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}
