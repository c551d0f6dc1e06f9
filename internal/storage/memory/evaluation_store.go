package memory

import (
	"context"
	"sort"
	"sync"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/storage"
)

// EvaluationStore is an in-memory implementation of storage.EvaluationStore.
type EvaluationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EvaluationRecord // keyed by run_id
}

// NewEvaluationStore creates a new in-memory evaluation store.
func NewEvaluationStore() *EvaluationStore {
	return &EvaluationStore{
		data: make(map[string]*domain.EvaluationRecord),
	}
}

// Insert adds a new evaluation. Returns ErrDuplicateKey if run_id exists.
func (s *EvaluationStore) Insert(_ context.Context, e *domain.EvaluationRecord) error {
	if e == nil || e.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[e.RunID] = copyEvaluation(e)
	return nil
}

// InsertBulk adds multiple evaluations atomically. Fails entire batch on
// any duplicate, in-batch or stored.
func (s *EvaluationStore) InsertBulk(_ context.Context, evals []*domain.EvaluationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(evals))
	for _, e := range evals {
		if e == nil || e.RunID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[e.RunID]; dup {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.data[e.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[e.RunID] = struct{}{}
	}

	for _, e := range evals {
		s.data[e.RunID] = copyEvaluation(e)
	}
	return nil
}

// GetByRunID retrieves an evaluation by its run ID. Returns ErrNotFound if
// not exists.
func (s *EvaluationStore) GetByRunID(_ context.Context, runID string) (*domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyEvaluation(e), nil
}

// GetByDatasetID retrieves all evaluations for a dataset, ordered by score
// DESC then model_id ASC.
func (s *EvaluationStore) GetByDatasetID(_ context.Context, datasetID string) ([]*domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EvaluationRecord
	for _, e := range s.data {
		if e.DatasetID == datasetID {
			result = append(result, copyEvaluation(e))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].ModelID < result[j].ModelID
	})

	return result, nil
}

// copyEvaluation deep-copies a record so callers cannot mutate stored state.
func copyEvaluation(e *domain.EvaluationRecord) *domain.EvaluationRecord {
	out := *e
	out.Result.PredictedValues = append([]float64(nil), e.Result.PredictedValues...)
	out.Result.ActualValues = append([]float64(nil), e.Result.ActualValues...)
	return &out
}

// Verify interface compliance at compile time.
var _ storage.EvaluationStore = (*EvaluationStore)(nil)
