package dataset

import (
	"math"

	"market-forecast-lab/internal/domain"
)

// DefaultOutlierThreshold is the z-score above which a value counts as an
// outlier.
const DefaultOutlierThreshold = 3.0

// DetectOutliers returns the indices of rows whose target value sits more
// than threshold standard deviations from the column mean. threshold <= 0
// selects the default. A column with zero spread has no outliers.
func DetectOutliers(rows domain.Series, field string, threshold float64) []int {
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}
	values := rows.FieldValues(field)
	m, sd := meanStd(values)
	if sd == 0 {
		return nil
	}

	var out []int
	for i, v := range values {
		if math.Abs(v-m)/sd > threshold {
			out = append(out, i)
		}
	}
	return out
}

// NormalizeMinMax rescales the target column to [0, 1], allocating new
// rows and leaving the input untouched. A zero-range column maps to 0.
func NormalizeMinMax(rows domain.Series, field string) domain.Series {
	values := rows.FieldValues(field)
	if len(values) == 0 {
		return cloneRows(rows)
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := cloneRows(rows)
	for i := range out {
		if _, ok := out[i].Values[field]; !ok {
			continue
		}
		if hi == lo {
			out[i].Values[field] = 0
		} else {
			out[i].Values[field] = (values[i] - lo) / (hi - lo)
		}
	}
	return out
}

// NormalizeZScore rescales the target column to zero mean and unit
// variance, allocating new rows. A zero-spread column maps to 0.
func NormalizeZScore(rows domain.Series, field string) domain.Series {
	values := rows.FieldValues(field)
	m, sd := meanStd(values)

	out := cloneRows(rows)
	for i := range out {
		if _, ok := out[i].Values[field]; !ok {
			continue
		}
		if sd == 0 {
			out[i].Values[field] = 0
		} else {
			out[i].Values[field] = (values[i] - m) / sd
		}
	}
	return out
}

// RemoveOutliers drops the rows DetectOutliers flags, allocating a new
// series.
func RemoveOutliers(rows domain.Series, field string, threshold float64) domain.Series {
	flagged := DetectOutliers(rows, field, threshold)
	drop := make(map[int]bool, len(flagged))
	for _, i := range flagged {
		drop[i] = true
	}

	out := make(domain.Series, 0, len(rows)-len(flagged))
	for i, r := range rows {
		if drop[i] {
			continue
		}
		out = append(out, cloneRow(r))
	}
	return out
}

func cloneRows(rows domain.Series) domain.Series {
	out := make(domain.Series, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out
}

func cloneRow(r domain.TimeSeriesRow) domain.TimeSeriesRow {
	values := make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return domain.TimeSeriesRow{Date: r.Date, Values: values}
}

// meanStd is the population mean and standard deviation.
func meanStd(values []float64) (float64, float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := sum / float64(n)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return m, math.Sqrt(sumSq / float64(n))
}
