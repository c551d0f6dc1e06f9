// Package metrics provides the pure error-metric functions used to score
// forecasts against held-out data. Every function takes two equal-length
// value sequences (predicted aligned index-for-index with actual) and
// returns a single number. Degenerate inputs (length mismatch, empty
// arrays, zero denominators) yield safe zero values, never NaN or Inf.
package metrics

import "math"

// MAE returns the mean absolute error. 0 for degenerate inputs.
func MAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// MSE returns the mean squared error. 0 for degenerate inputs.
func MSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return sum / float64(len(actual))
}

// RMSE returns the root mean squared error.
func RMSE(actual, predicted []float64) float64 {
	return math.Sqrt(MSE(actual, predicted))
}

// MAPE returns the mean absolute percentage error, computed only over
// indices where actual is non-zero. Zero-actual entries are skipped, not
// treated as infinite error; if every actual is zero the result is 0.
// Silently skipping zero denominators understates error on sparse series —
// a known weakness of this definition, kept for output compatibility.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}
	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count) * 100
}

// R2 returns the coefficient of determination 1 - SS_res/SS_tot, where
// SS_tot is taken against the mean of actual. Returns 0 when SS_tot is 0
// or inputs are degenerate. Negative values are valid output (a model
// worse than predicting the mean) and are not clamped.
func R2(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range actual {
		mean += v
	}
	mean /= float64(len(actual))

	ssTot := 0.0
	ssRes := 0.0
	for i := range actual {
		dt := actual[i] - mean
		dr := actual[i] - predicted[i]
		ssTot += dt * dt
		ssRes += dr * dr
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// DirectionalAccuracy returns the percentage of consecutive steps whose
// direction of movement agrees between actual and predicted. A flat step
// (difference of exactly 0) counts as non-negative on both sides, so flat
// matches flat or up. Both sequences need length > 1 and equal length,
// otherwise the result is 0.
func DirectionalAccuracy(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) < 2 {
		return 0
	}
	matches := 0
	steps := len(actual) - 1
	for i := 1; i < len(actual); i++ {
		actualUp := actual[i]-actual[i-1] >= 0
		predictedUp := predicted[i]-predicted[i-1] >= 0
		if actualUp == predictedUp {
			matches++
		}
	}
	return float64(matches) / float64(steps) * 100
}
