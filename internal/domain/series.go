package domain

import (
	"fmt"
	"time"
)

// DateLayout is the canonical date format for series rows (ISO calendar date).
const DateLayout = "2006-01-02"

// TimeSeriesRow is one observation in a series: a calendar date plus the
// numeric columns declared by the dataset. Rows are ordered by ascending
// date; order is positional, no row carries an index.
type TimeSeriesRow struct {
	Date   string             `json:"date"`   // ISO YYYY-MM-DD
	Values map[string]float64 `json:"values"` // numeric columns by name
}

// Value returns the named field and whether it is present.
func (r TimeSeriesRow) Value(field string) (float64, bool) {
	v, ok := r.Values[field]
	return v, ok
}

// PredictionRow is a synthetic future row produced by a model. Exactly one
// numeric field (the target) is populated; IsPrediction distinguishes it
// from historical rows when concatenated for charting.
type PredictionRow struct {
	Date         string             `json:"date"`
	Values       map[string]float64 `json:"values"`
	IsPrediction bool               `json:"is_prediction"`
}

// NewPredictionRow builds a prediction row for a single target field.
func NewPredictionRow(date, field string, value float64) PredictionRow {
	return PredictionRow{
		Date:         date,
		Values:       map[string]float64{field: value},
		IsPrediction: true,
	}
}

// Value returns the named field and whether it is present.
func (r PredictionRow) Value(field string) (float64, bool) {
	v, ok := r.Values[field]
	return v, ok
}

// Series is an ordered sequence of rows, ascending by date.
type Series []TimeSeriesRow

// FieldValues extracts the named column in row order. Rows missing the
// field contribute 0 so positions stay aligned with dates.
func (s Series) FieldValues(field string) []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.Values[field]
	}
	return out
}

// HasField reports whether any row carries the named column.
func (s Series) HasField(field string) bool {
	for _, r := range s {
		if _, ok := r.Values[field]; ok {
			return true
		}
	}
	return false
}

// LastDate parses the date of the final row.
func (s Series) LastDate() (time.Time, error) {
	if len(s) == 0 {
		return time.Time{}, fmt.Errorf("empty series has no last date")
	}
	t, err := time.Parse(DateLayout, s[len(s)-1].Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last row date %q: %w", s[len(s)-1].Date, err)
	}
	return t, nil
}

// Tail returns the last n rows (the whole series if n <= 0 or n >= len).
func (s Series) Tail(n int) Series {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
