package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/observability"
	"market-forecast-lab/internal/storage"
)

// EvaluationStore implements storage.EvaluationStore using PostgreSQL.
type EvaluationStore struct {
	pool *Pool
}

// NewEvaluationStore creates a new EvaluationStore.
func NewEvaluationStore(pool *Pool) *EvaluationStore {
	return &EvaluationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EvaluationStore = (*EvaluationStore)(nil)

const insertEvaluationQuery = `
	INSERT INTO model_evaluations (
		run_id, dataset_id, model_id, target_field, backtest_window, score,
		mae, mse, rmse, mape, r2, directional_accuracy,
		predicted_values, actual_values, created_at_ms
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

// Insert adds a new evaluation. Returns ErrDuplicateKey if run_id exists.
func (s *EvaluationStore) Insert(ctx context.Context, e *domain.EvaluationRecord) (err error) {
	if e == nil || e.RunID == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observability.RecordDBQuery("postgres", "evaluation_insert", time.Since(start).Seconds(), err) }()

	_, err = s.pool.Exec(ctx, insertEvaluationQuery, evaluationArgs(e)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// InsertBulk adds multiple evaluations in a single transaction. Fails the
// entire batch on any duplicate.
func (s *EvaluationStore) InsertBulk(ctx context.Context, evals []*domain.EvaluationRecord) (err error) {
	if len(evals) == 0 {
		return nil
	}
	for _, e := range evals {
		if e == nil || e.RunID == "" {
			return storage.ErrInvalidInput
		}
	}
	start := time.Now()
	defer func() { observability.RecordDBQuery("postgres", "evaluation_insert_bulk", time.Since(start).Seconds(), err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, e := range evals {
		if _, err := tx.Exec(ctx, insertEvaluationQuery, evaluationArgs(e)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert evaluation %s: %w", e.RunID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	return nil
}

// GetByRunID retrieves an evaluation by its run ID. Returns ErrNotFound if
// not exists.
func (s *EvaluationStore) GetByRunID(ctx context.Context, runID string) (_ *domain.EvaluationRecord, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("postgres", "evaluation_get", time.Since(start).Seconds(), err) }()

	query := selectEvaluationColumns + `
		FROM model_evaluations
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	e, err := scanEvaluation(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get evaluation by run id: %w", err)
	}
	return e, nil
}

// GetByDatasetID retrieves all evaluations for a dataset, ordered by score
// DESC then model_id ASC.
func (s *EvaluationStore) GetByDatasetID(ctx context.Context, datasetID string) (_ []*domain.EvaluationRecord, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("postgres", "evaluation_list", time.Since(start).Seconds(), err) }()

	query := selectEvaluationColumns + `
		FROM model_evaluations
		WHERE dataset_id = $1
		ORDER BY score DESC, model_id ASC
	`

	rows, err := s.pool.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("get evaluations by dataset id: %w", err)
	}
	defer rows.Close()

	var evals []*domain.EvaluationRecord
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation row: %w", err)
		}
		evals = append(evals, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluation rows: %w", err)
	}

	return evals, nil
}

const selectEvaluationColumns = `
	SELECT run_id, dataset_id, model_id, target_field, backtest_window, score,
		mae, mse, rmse, mape, r2, directional_accuracy,
		predicted_values, actual_values, created_at_ms
`

func evaluationArgs(e *domain.EvaluationRecord) []any {
	return []any{
		e.RunID,
		e.DatasetID,
		e.ModelID,
		e.TargetField,
		e.BacktestWindow,
		e.Score,
		e.Result.MAE,
		e.Result.MSE,
		e.Result.RMSE,
		e.Result.MAPE,
		e.Result.R2,
		e.Result.DirectionalAccuracy,
		e.Result.PredictedValues,
		e.Result.ActualValues,
		e.CreatedAtMs,
	}
}

// scanEvaluation scans a single row into an EvaluationRecord.
func scanEvaluation(row pgx.Row) (*domain.EvaluationRecord, error) {
	var e domain.EvaluationRecord

	err := row.Scan(
		&e.RunID,
		&e.DatasetID,
		&e.ModelID,
		&e.TargetField,
		&e.BacktestWindow,
		&e.Score,
		&e.Result.MAE,
		&e.Result.MSE,
		&e.Result.RMSE,
		&e.Result.MAPE,
		&e.Result.R2,
		&e.Result.DirectionalAccuracy,
		&e.Result.PredictedValues,
		&e.Result.ActualValues,
		&e.CreatedAtMs,
	)
	if err != nil {
		return nil, err
	}

	if e.Result.PredictedValues == nil {
		e.Result.PredictedValues = []float64{}
	}
	if e.Result.ActualValues == nil {
		e.Result.ActualValues = []float64{}
	}

	return &e, nil
}
