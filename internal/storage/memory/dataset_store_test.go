package memory

import (
	"context"
	"errors"
	"testing"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/storage"
)

func sampleDataset(id string, createdAt int64) *domain.Dataset {
	return &domain.Dataset{
		ID:   id,
		Name: "btc_daily.csv",
		Columns: []domain.Column{
			{Name: "Date", Type: domain.ColumnDate},
			{Name: "close", Type: domain.ColumnNumeric},
		},
		Rows: domain.Series{
			{Date: "2024-01-01", Values: map[string]float64{"close": 100}},
			{Date: "2024-01-02", Values: map[string]float64{"close": 101}},
		},
		CreatedAtMs: createdAt,
	}
}

func TestDatasetStore_InsertAndGet(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	d := sampleDataset("ds1", 1000)
	if err := store.Insert(ctx, d); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "ds1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Name != d.Name {
		t.Errorf("Name mismatch: got %s, want %s", got.Name, d.Name)
	}
	if len(got.Rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(got.Rows))
	}
	if got.Rows[0].Values["close"] != 100 {
		t.Errorf("Row value mismatch: got %v", got.Rows[0].Values["close"])
	}
}

func TestDatasetStore_DuplicateKey(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	d := sampleDataset("ds1", 1000)
	if err := store.Insert(ctx, d); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, d)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestDatasetStore_NotFound(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDatasetStore_ListOrdering(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	// Same created_at_ms for b and a breaks the tie on dataset_id.
	for _, d := range []*domain.Dataset{
		sampleDataset("ds_c", 3000),
		sampleDataset("ds_b", 1000),
		sampleDataset("ds_a", 1000),
	} {
		if err := store.Insert(ctx, d); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"ds_a", "ds_b", "ds_c"}
	if len(result) != len(want) {
		t.Fatalf("Expected %d results, got %d", len(want), len(result))
	}
	for i, id := range want {
		if result[i].ID != id {
			t.Errorf("Position %d: got %s, want %s", i, result[i].ID, id)
		}
	}
}

func TestDatasetStore_ReturnsCopies(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	d := sampleDataset("ds1", 1000)
	if err := store.Insert(ctx, d); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "ds1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	got.Rows[0].Values["close"] = -1
	got.Columns[0].Name = "mutated"

	again, err := store.GetByID(ctx, "ds1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if again.Rows[0].Values["close"] != 100 {
		t.Errorf("Stored row mutated through returned copy: %v", again.Rows[0].Values["close"])
	}
	if again.Columns[0].Name != "Date" {
		t.Errorf("Stored column mutated through returned copy: %s", again.Columns[0].Name)
	}
}

func TestDatasetStore_InvalidInput(t *testing.T) {
	store := NewDatasetStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.Dataset{ID: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}
