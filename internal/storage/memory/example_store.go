package memory

import (
	"context"
	"sort"
	"sync"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/storage"
)

// ExampleStore is an in-memory implementation of storage.ExampleStore.
type ExampleStore struct {
	mu   sync.RWMutex
	data []*domain.TrainingExample
}

// NewExampleStore creates a new in-memory training-example store.
func NewExampleStore() *ExampleStore {
	return &ExampleStore{}
}

var _ storage.ExampleStore = (*ExampleStore)(nil)

// InsertBulk adds multiple examples. Each example is copied, including its
// feature row, so later mutation of the source cannot change the snapshot.
func (s *ExampleStore) InsertBulk(_ context.Context, examples []*domain.TrainingExample) error {
	for _, e := range examples {
		if e == nil || e.Ticker == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range examples {
		cp := *e
		if e.Features != nil {
			cp.Features = e.Features.Clone()
		}
		s.data = append(s.data, &cp)
	}
	return nil
}

// GetAll retrieves every example ordered by (signal date, ticker) ASC.
func (s *ExampleStore) GetAll(_ context.Context) ([]*domain.TrainingExample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TrainingExample, 0, len(s.data))
	for _, e := range s.data {
		cp := *e
		if e.Features != nil {
			cp.Features = e.Features.Clone()
		}
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SignalDate != result[j].SignalDate {
			return result[i].SignalDate < result[j].SignalDate
		}
		return result[i].Ticker < result[j].Ticker
	})
	return result, nil
}
