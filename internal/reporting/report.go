// Package reporting renders a model comparison as human-readable report
// strings (Markdown) and machine-readable CSV.
package reporting

import (
	"time"

	"market-forecast-lab/internal/domain"
)

// Report is the renderable view of one comparison run.
type Report struct {
	// Metadata
	GeneratedAt    time.Time
	DatasetName    string
	TargetField    string
	RowCount       int
	Horizon        int
	BacktestWindow int

	// Ranked model rows, best first.
	Rows []ModelRow
}

// ModelRow is one model's line in the ranking table.
type ModelRow struct {
	Rank                int
	ModelID             string
	DisplayName         string
	Category            domain.ModelCategory
	Score               int
	MAPE                float64
	RMSE                float64
	R2                  float64
	DirectionalAccuracy float64
}

// Best returns the top-ranked row, or false when the report is empty.
func (r *Report) Best() (ModelRow, bool) {
	if len(r.Rows) == 0 {
		return ModelRow{}, false
	}
	return r.Rows[0], true
}
