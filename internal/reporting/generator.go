package reporting

import (
	"time"

	"market-forecast-lab/internal/compare"
	"market-forecast-lab/internal/forecast"
)

// Options describe the run a report is generated from.
type Options struct {
	DatasetName    string
	RowCount       int
	BacktestWindow int
	GeneratedAt    time.Time // zero means time.Now()
}

// FromComparison builds a report from a finished comparison. The
// registry supplies display names and categories; ids missing from the
// catalog fall back to the raw id.
func FromComparison(cmp *compare.Comparison, registry *forecast.Registry, opts Options) *Report {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	report := &Report{
		GeneratedAt:    opts.GeneratedAt,
		DatasetName:    opts.DatasetName,
		TargetField:    cmp.TargetField,
		RowCount:       opts.RowCount,
		Horizon:        cmp.Horizon,
		BacktestWindow: opts.BacktestWindow,
		Rows:           make([]ModelRow, 0, len(cmp.Ranking)),
	}

	for i, ev := range cmp.Ranking {
		row := ModelRow{
			Rank:                i + 1,
			ModelID:             ev.ModelID,
			DisplayName:         ev.ModelID,
			Score:               ev.Score,
			MAPE:                ev.Result.MAPE,
			RMSE:                ev.Result.RMSE,
			R2:                  ev.Result.R2,
			DirectionalAccuracy: ev.Result.DirectionalAccuracy,
		}
		if entry, err := registry.Get(ev.ModelID); err == nil {
			row.DisplayName = entry.Descriptor.DisplayName
			row.Category = entry.Descriptor.Category
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}
