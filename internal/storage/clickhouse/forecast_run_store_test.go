package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/storage"
)

func sampleRun(runID, datasetID string, createdAt int64) *domain.ForecastRun {
	return &domain.ForecastRun{
		RunID:       runID,
		DatasetID:   datasetID,
		ModelID:     "moving_average",
		TargetField: "close",
		Horizon:     3,
		CreatedAtMs: createdAt,
		Predictions: []domain.PredictionRow{
			domain.NewPredictionRow("2024-02-01", "close", 105.25),
			domain.NewPredictionRow("2024-02-02", "close", 106.5),
			domain.NewPredictionRow("2024-02-03", "close", 107.0),
		},
	}
}

func TestForecastRunStore_InsertAndGetByID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastRunStore(conn)
	ctx := context.Background()

	r := sampleRun("run-ch-001", "ds1", 1700000000000)
	require.NoError(t, store.Insert(ctx, r))

	got, err := store.GetByID(ctx, "run-ch-001")
	require.NoError(t, err)

	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, r.DatasetID, got.DatasetID)
	assert.Equal(t, r.ModelID, got.ModelID)
	assert.Equal(t, r.TargetField, got.TargetField)
	assert.Equal(t, r.Horizon, got.Horizon)
	assert.Equal(t, r.CreatedAtMs, got.CreatedAtMs)

	require.Len(t, got.Predictions, 3)
	assert.Equal(t, "2024-02-01", got.Predictions[0].Date)
	assert.Equal(t, 105.25, got.Predictions[0].Values["close"])
	assert.True(t, got.Predictions[0].IsPrediction)
}

func TestForecastRunStore_InsertDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastRunStore(conn)
	ctx := context.Background()

	r := sampleRun("run-ch-dup", "ds1", 1700000000000)
	require.NoError(t, store.Insert(ctx, r))

	err := store.Insert(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestForecastRunStore_GetByIDNotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastRunStore(conn)

	_, err := store.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestForecastRunStore_GetByDatasetID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastRunStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleRun("run2", "ds1", 2000)))
	require.NoError(t, store.Insert(ctx, sampleRun("run1", "ds1", 1000)))
	require.NoError(t, store.Insert(ctx, sampleRun("run3", "ds2", 3000)))

	result, err := store.GetByDatasetID(ctx, "ds1")
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, "run1", result[0].RunID)
	assert.Equal(t, "run2", result[1].RunID)
}

func TestForecastRunStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastRunStore(conn)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.ForecastRun{RunID: ""}), storage.ErrInvalidInput)
}
