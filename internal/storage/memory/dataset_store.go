// Package memory holds in-memory store implementations. They mirror the
// SPA's in-memory state and back the server when no database is
// configured; tests use them as the reference behavior for the SQL
// backends.
package memory

import (
	"context"
	"sort"
	"sync"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/storage"
)

// DatasetStore is an in-memory implementation of storage.DatasetStore.
type DatasetStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Dataset // keyed by dataset_id
}

// NewDatasetStore creates a new in-memory dataset store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{
		data: make(map[string]*domain.Dataset),
	}
}

// Insert adds a new dataset. Returns ErrDuplicateKey if dataset_id exists.
func (s *DatasetStore) Insert(_ context.Context, d *domain.Dataset) error {
	if d == nil || d.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[d.ID] = copyDataset(d)
	return nil
}

// GetByID retrieves a dataset by its ID. Returns ErrNotFound if not exists.
func (s *DatasetStore) GetByID(_ context.Context, datasetID string) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[datasetID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyDataset(d), nil
}

// List retrieves all datasets, ordered by created_at_ms ASC then dataset_id.
func (s *DatasetStore) List(_ context.Context) ([]*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Dataset, 0, len(s.data))
	for _, d := range s.data {
		result = append(result, copyDataset(d))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAtMs != result[j].CreatedAtMs {
			return result[i].CreatedAtMs < result[j].CreatedAtMs
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// copyDataset deep-copies a dataset so callers cannot mutate stored state.
func copyDataset(d *domain.Dataset) *domain.Dataset {
	out := *d
	out.Columns = append([]domain.Column(nil), d.Columns...)
	out.Rows = make(domain.Series, len(d.Rows))
	for i, r := range d.Rows {
		values := make(map[string]float64, len(r.Values))
		for k, v := range r.Values {
			values[k] = v
		}
		out.Rows[i] = domain.TimeSeriesRow{Date: r.Date, Values: values}
	}
	return &out
}

// Verify interface compliance at compile time.
var _ storage.DatasetStore = (*DatasetStore)(nil)
