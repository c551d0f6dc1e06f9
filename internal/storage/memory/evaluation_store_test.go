package memory

import (
	"context"
	"errors"
	"testing"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/storage"
)

func sampleEvaluation(runID, datasetID, modelID string, score int) *domain.EvaluationRecord {
	return &domain.EvaluationRecord{
		RunID:          runID,
		DatasetID:      datasetID,
		ModelID:        modelID,
		TargetField:    "close",
		BacktestWindow: 7,
		Score:          score,
		Result: domain.BacktestResult{
			MAE:                 2.5,
			MSE:                 8.0,
			RMSE:                2.83,
			MAPE:                3.1,
			R2:                  0.92,
			DirectionalAccuracy: 83.3,
			PredictedValues:     []float64{101, 102},
			ActualValues:        []float64{100, 103},
		},
		CreatedAtMs: 1000,
	}
}

func TestEvaluationStore_InsertAndGet(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	e := sampleEvaluation("run1", "ds1", "arima", 88)
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}

	if got.Score != 88 {
		t.Errorf("Score mismatch: got %d", got.Score)
	}
	if got.Result.R2 != 0.92 {
		t.Errorf("R2 mismatch: got %v", got.Result.R2)
	}
	if len(got.Result.PredictedValues) != 2 {
		t.Errorf("Expected 2 predicted values, got %d", len(got.Result.PredictedValues))
	}
}

func TestEvaluationStore_DuplicateKey(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	e := sampleEvaluation("run1", "ds1", "arima", 88)
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, e)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestEvaluationStore_NotFound(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	_, err := store.GetByRunID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestEvaluationStore_GetByDatasetID_Ordering(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	// arima and linear_regression share a score; model_id breaks the tie.
	evals := []*domain.EvaluationRecord{
		sampleEvaluation("run1", "ds1", "linear_regression", 75),
		sampleEvaluation("run2", "ds1", "arima", 75),
		sampleEvaluation("run3", "ds1", "prophet", 91),
		sampleEvaluation("run4", "ds2", "arima", 99),
	}
	for _, e := range evals {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByDatasetID(ctx, "ds1")
	if err != nil {
		t.Fatalf("GetByDatasetID failed: %v", err)
	}

	if len(result) != 3 {
		t.Fatalf("Expected 3 evaluations for ds1, got %d", len(result))
	}
	wantModels := []string{"prophet", "arima", "linear_regression"}
	for i, m := range wantModels {
		if result[i].ModelID != m {
			t.Errorf("Position %d: got %s, want %s", i, result[i].ModelID, m)
		}
	}
}

func TestEvaluationStore_InsertBulk(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	evals := []*domain.EvaluationRecord{
		sampleEvaluation("run1", "ds1", "arima", 80),
		sampleEvaluation("run2", "ds1", "prophet", 90),
	}
	if err := store.InsertBulk(ctx, evals); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByDatasetID(ctx, "ds1")
	if err != nil {
		t.Fatalf("GetByDatasetID failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 evaluations, got %d", len(result))
	}
}

func TestEvaluationStore_InsertBulk_DuplicateRollsBack(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	if err := store.Insert(ctx, sampleEvaluation("run1", "ds1", "arima", 80)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	evals := []*domain.EvaluationRecord{
		sampleEvaluation("run2", "ds1", "prophet", 90),
		sampleEvaluation("run1", "ds1", "arima", 80), // duplicate of stored row
	}
	err := store.InsertBulk(ctx, evals)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// Nothing from the failed batch should have landed.
	if _, err := store.GetByRunID(ctx, "run2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected run2 absent after failed batch, got %v", err)
	}
}

func TestEvaluationStore_InsertBulk_InBatchDuplicate(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	evals := []*domain.EvaluationRecord{
		sampleEvaluation("run1", "ds1", "arima", 80),
		sampleEvaluation("run1", "ds1", "arima", 80),
	}
	err := store.InsertBulk(ctx, evals)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestEvaluationStore_ReturnsCopies(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	e := sampleEvaluation("run1", "ds1", "arima", 88)
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	got.Result.PredictedValues[0] = -1

	again, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if again.Result.PredictedValues[0] != 101 {
		t.Errorf("Stored result mutated through returned copy: %v", again.Result.PredictedValues[0])
	}
}

func TestEvaluationStore_InvalidInput(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.EvaluationRecord{nil}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil in batch, got %v", err)
	}
}
