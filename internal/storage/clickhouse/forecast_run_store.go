package clickhouse

import (
	"context"
	"fmt"
	"time"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/observability"
	"market-forecast-lab/internal/storage"
)

// ForecastRunStore implements storage.ForecastRunStore using ClickHouse.
// Predictions are flattened into parallel date and value arrays; MergeTree
// does not enforce uniqueness, so duplicates are rejected by an explicit
// existence check before insert.
type ForecastRunStore struct {
	conn *Conn
}

// NewForecastRunStore creates a new ForecastRunStore.
func NewForecastRunStore(conn *Conn) *ForecastRunStore {
	return &ForecastRunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ForecastRunStore = (*ForecastRunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ForecastRunStore) Insert(ctx context.Context, r *domain.ForecastRun) (err error) {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observability.RecordDBQuery("clickhouse", "run_insert", time.Since(start).Seconds(), err) }()

	exists, err := s.exists(ctx, r.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	dates := make([]string, len(r.Predictions))
	values := make([]float64, len(r.Predictions))
	for i, p := range r.Predictions {
		dates[i] = p.Date
		values[i] = p.Values[r.TargetField]
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO forecast_runs (
			run_id, dataset_id, model_id, target_field, horizon,
			prediction_dates, prediction_values, created_at_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		r.RunID, r.DatasetID, r.ModelID, r.TargetField, uint32(r.Horizon),
		dates, values, uint64(r.CreatedAtMs),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ForecastRunStore) GetByID(ctx context.Context, runID string) (_ *domain.ForecastRun, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("clickhouse", "run_get", time.Since(start).Seconds(), err) }()

	query := `
		SELECT run_id, dataset_id, model_id, target_field, horizon,
			prediction_dates, prediction_values, created_at_ms
		FROM forecast_runs
		WHERE run_id = ?
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run by id: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}
	return runs[0], nil
}

// GetByDatasetID retrieves all runs for a dataset, ordered by created_at_ms ASC.
func (s *ForecastRunStore) GetByDatasetID(ctx context.Context, datasetID string) (_ []*domain.ForecastRun, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("clickhouse", "run_list", time.Since(start).Seconds(), err) }()

	query := `
		SELECT run_id, dataset_id, model_id, target_field, horizon,
			prediction_dates, prediction_values, created_at_ms
		FROM forecast_runs
		WHERE dataset_id = ?
		ORDER BY created_at_ms ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query runs by dataset id: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// exists checks if a run with the given ID exists.
func (s *ForecastRunStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM forecast_runs WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows the scanners need.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanRuns scans multiple rows, rebuilding prediction rows from the
// parallel arrays.
func scanRuns(rows chRows) ([]*domain.ForecastRun, error) {
	var runs []*domain.ForecastRun

	for rows.Next() {
		var r domain.ForecastRun
		var horizon uint32
		var createdAtMs uint64
		var dates []string
		var values []float64

		err := rows.Scan(
			&r.RunID, &r.DatasetID, &r.ModelID, &r.TargetField, &horizon,
			&dates, &values, &createdAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if len(dates) != len(values) {
			return nil, fmt.Errorf("run %s: %d dates vs %d values", r.RunID, len(dates), len(values))
		}

		r.Horizon = int(horizon)
		r.CreatedAtMs = int64(createdAtMs)
		r.Predictions = make([]domain.PredictionRow, len(dates))
		for i := range dates {
			r.Predictions[i] = domain.NewPredictionRow(dates[i], r.TargetField, values[i])
		}
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
