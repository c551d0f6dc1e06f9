package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/observability"
	"market-forecast-lab/internal/storage"
)

// DatasetStore implements storage.DatasetStore using PostgreSQL. Column
// metadata and rows are stored as JSONB; datasets are small enough that a
// single document per dataset beats a row-per-observation layout.
type DatasetStore struct {
	pool *Pool
}

// NewDatasetStore creates a new DatasetStore.
func NewDatasetStore(pool *Pool) *DatasetStore {
	return &DatasetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DatasetStore = (*DatasetStore)(nil)

// Insert adds a new dataset. Returns ErrDuplicateKey if dataset_id exists.
func (s *DatasetStore) Insert(ctx context.Context, d *domain.Dataset) (err error) {
	if d == nil || d.ID == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observability.RecordDBQuery("postgres", "dataset_insert", time.Since(start).Seconds(), err) }()

	columns, err := json.Marshal(d.Columns)
	if err != nil {
		return fmt.Errorf("marshal dataset columns: %w", err)
	}
	rows, err := json.Marshal(d.Rows)
	if err != nil {
		return fmt.Errorf("marshal dataset rows: %w", err)
	}

	query := `
		INSERT INTO datasets (dataset_id, name, columns, rows, created_at_ms)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = s.pool.Exec(ctx, query, d.ID, d.Name, columns, rows, d.CreatedAtMs)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

// GetByID retrieves a dataset by its ID. Returns ErrNotFound if not exists.
func (s *DatasetStore) GetByID(ctx context.Context, datasetID string) (_ *domain.Dataset, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("postgres", "dataset_get", time.Since(start).Seconds(), err) }()

	query := `
		SELECT dataset_id, name, columns, rows, created_at_ms
		FROM datasets
		WHERE dataset_id = $1
	`

	row := s.pool.QueryRow(ctx, query, datasetID)
	d, err := scanDataset(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get dataset by id: %w", err)
	}
	return d, nil
}

// List retrieves all datasets, ordered by created_at_ms ASC then dataset_id.
func (s *DatasetStore) List(ctx context.Context) (_ []*domain.Dataset, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("postgres", "dataset_list", time.Since(start).Seconds(), err) }()

	query := `
		SELECT dataset_id, name, columns, rows, created_at_ms
		FROM datasets
		ORDER BY created_at_ms ASC, dataset_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*domain.Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dataset row: %w", err)
		}
		datasets = append(datasets, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset rows: %w", err)
	}

	return datasets, nil
}

// scanDataset scans a single row into a Dataset.
func scanDataset(row pgx.Row) (*domain.Dataset, error) {
	var d domain.Dataset
	var columns, rowsJSON []byte

	err := row.Scan(&d.ID, &d.Name, &columns, &rowsJSON, &d.CreatedAtMs)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(columns, &d.Columns); err != nil {
		return nil, fmt.Errorf("unmarshal dataset columns: %w", err)
	}
	if err := json.Unmarshal(rowsJSON, &d.Rows); err != nil {
		return nil, fmt.Errorf("unmarshal dataset rows: %w", err)
	}

	return &d, nil
}
