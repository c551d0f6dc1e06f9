package memory

import (
	"context"
	"sort"
	"sync"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/storage"
)

// ForecastRunStore is an in-memory implementation of storage.ForecastRunStore.
type ForecastRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ForecastRun // keyed by run_id
}

// NewForecastRunStore creates a new in-memory forecast run store.
func NewForecastRunStore() *ForecastRunStore {
	return &ForecastRunStore{
		data: make(map[string]*domain.ForecastRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ForecastRunStore) Insert(_ context.Context, r *domain.ForecastRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ForecastRunStore) GetByID(_ context.Context, runID string) (*domain.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

// GetByDatasetID retrieves all runs for a dataset, ordered by created_at_ms ASC.
func (s *ForecastRunStore) GetByDatasetID(_ context.Context, datasetID string) ([]*domain.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ForecastRun
	for _, r := range s.data {
		if r.DatasetID == datasetID {
			result = append(result, copyRun(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAtMs != result[j].CreatedAtMs {
			return result[i].CreatedAtMs < result[j].CreatedAtMs
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

// copyRun deep-copies a run so callers cannot mutate stored state.
func copyRun(r *domain.ForecastRun) *domain.ForecastRun {
	out := *r
	out.Predictions = make([]domain.PredictionRow, len(r.Predictions))
	for i, p := range r.Predictions {
		values := make(map[string]float64, len(p.Values))
		for k, v := range p.Values {
			values[k] = v
		}
		out.Predictions[i] = domain.PredictionRow{Date: p.Date, Values: values, IsPrediction: p.IsPrediction}
	}
	return &out
}

// Verify interface compliance at compile time.
var _ storage.ForecastRunStore = (*ForecastRunStore)(nil)
