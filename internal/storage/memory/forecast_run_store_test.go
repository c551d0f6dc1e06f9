package memory

import (
	"context"
	"errors"
	"testing"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/storage"
)

func sampleRun(runID, datasetID string, createdAt int64) *domain.ForecastRun {
	return &domain.ForecastRun{
		RunID:       runID,
		DatasetID:   datasetID,
		ModelID:     "moving_average",
		TargetField: "close",
		Horizon:     7,
		CreatedAtMs: createdAt,
		Predictions: []domain.PredictionRow{
			domain.NewPredictionRow("2024-02-01", "close", 105.25),
			domain.NewPredictionRow("2024-02-02", "close", 106.50),
		},
	}
}

func TestForecastRunStore_InsertAndGet(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	r := sampleRun("run1", "ds1", 1000)
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.ModelID != "moving_average" {
		t.Errorf("ModelID mismatch: got %s", got.ModelID)
	}
	if len(got.Predictions) != 2 {
		t.Fatalf("Expected 2 predictions, got %d", len(got.Predictions))
	}
	if got.Predictions[0].Values["close"] != 105.25 {
		t.Errorf("Prediction value mismatch: got %v", got.Predictions[0].Values["close"])
	}
	if !got.Predictions[0].IsPrediction {
		t.Error("Prediction row lost IsPrediction flag")
	}
}

func TestForecastRunStore_DuplicateKey(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	r := sampleRun("run1", "ds1", 1000)
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, r)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestForecastRunStore_NotFound(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestForecastRunStore_GetByDatasetID(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	runs := []*domain.ForecastRun{
		sampleRun("run3", "ds1", 3000),
		sampleRun("run1", "ds1", 1000),
		sampleRun("run2", "ds2", 2000),
	}
	for _, r := range runs {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByDatasetID(ctx, "ds1")
	if err != nil {
		t.Fatalf("GetByDatasetID failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 runs for ds1, got %d", len(result))
	}
	if result[0].RunID != "run1" || result[1].RunID != "run3" {
		t.Errorf("Wrong order: got %s, %s", result[0].RunID, result[1].RunID)
	}
}

func TestForecastRunStore_ReturnsCopies(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	r := sampleRun("run1", "ds1", 1000)
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	got.Predictions[0].Values["close"] = -1

	again, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if again.Predictions[0].Values["close"] != 105.25 {
		t.Errorf("Stored prediction mutated through returned copy: %v", again.Predictions[0].Values["close"])
	}
}

func TestForecastRunStore_InvalidInput(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.ForecastRun{RunID: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}
