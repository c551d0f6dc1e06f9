package storage

import (
	"context"

	"market-forecast-lab/internal/domain"
)

// DatasetStore provides access to ingested datasets.
type DatasetStore interface {
	// Insert adds a new dataset. Returns ErrDuplicateKey if dataset_id exists.
	Insert(ctx context.Context, d *domain.Dataset) error

	// GetByID retrieves a dataset by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, datasetID string) (*domain.Dataset, error)

	// List retrieves all datasets, ordered by created_at_ms ASC then dataset_id.
	List(ctx context.Context) ([]*domain.Dataset, error)
}

// ForecastRunStore provides access to forecast run history.
type ForecastRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.ForecastRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.ForecastRun, error)

	// GetByDatasetID retrieves all runs for a dataset, ordered by created_at_ms ASC.
	GetByDatasetID(ctx context.Context, datasetID string) ([]*domain.ForecastRun, error)
}

// EvaluationStore provides access to backtest evaluation records.
type EvaluationStore interface {
	// Insert adds a new evaluation. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, e *domain.EvaluationRecord) error

	// InsertBulk adds multiple evaluations atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, evals []*domain.EvaluationRecord) error

	// GetByRunID retrieves an evaluation by its run ID. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.EvaluationRecord, error)

	// GetByDatasetID retrieves all evaluations for a dataset, ordered by score DESC
	// then model_id ASC.
	GetByDatasetID(ctx context.Context, datasetID string) ([]*domain.EvaluationRecord, error)
}
