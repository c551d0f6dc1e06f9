package forecast

import (
	"math"
	"math/rand"

	"market-forecast-lab/internal/domain"
)

// RandomForest is a fixed "ensemble" of four moving averages: plain means
// over windows 3, 7 and 14 plus a recency-weighted mean over window 5,
// blended with static weights 0.3/0.3/0.2/0.2. The blend is constant
// across every predicted day.
func RandomForest(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)

	blend := 0.3*tailMean(values, 3) +
		0.3*tailMean(values, 7) +
		0.2*tailMean(values, 14) +
		0.2*recencyWeightedMean(values, 5)
	return constantRows(dates, targetField, blend), nil
}

// XGBoost learner windows and blending constants.
var xgboostWindows = [5]int{3, 5, 7, 14, 21}

const (
	xgboostAdjustRate = 0.2  // fraction of the gap to the blended target closed per day
	xgboostNoiseScale = 0.01 // uniform noise amplitude: ±1% scaled by day number
)

// XGBoost is a boosting-flavored heuristic: five weak learners, one per
// window, each predicting last value plus its window's average first
// difference. Learners are weighted by the inverse of their one-step
// residual against the actual last value, the blend is approached at only
// 20% per day, and uniform noise of ±1% times the day number is injected.
// The noise source comes from the registry; a fixed seed makes the output
// reproducible.
func XGBoost(rng *rand.Rand, series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	lastValue := values[len(values)-1]

	// Per-learner slope, and a residual weight from how well the learner
	// would have predicted the last observed value from the one before it.
	steps := make([]float64, len(xgboostWindows))
	weights := make([]float64, len(xgboostWindows))
	weightSum := 0.0
	for i, w := range xgboostWindows {
		steps[i] = avgStep(values, w)
		residual := 0.0
		if len(values) >= 2 {
			oneStep := values[len(values)-2] + avgStep(values[:len(values)-1], w)
			residual = math.Abs(lastValue - oneStep)
		}
		weights[i] = 1 / (1 + residual)
		weightSum += weights[i]
	}

	out := make([]float64, horizon)
	current := lastValue
	for day := 1; day <= horizon; day++ {
		target := 0.0
		for i := range xgboostWindows {
			target += weights[i] / weightSum * (lastValue + steps[i]*float64(day))
		}
		current += xgboostAdjustRate * (target - current)
		noise := (rng.Float64()*2 - 1) * xgboostNoiseScale * float64(day)
		out[day-1] = current * (1 + noise)
	}
	return predictionRows(dates, targetField, out), nil
}
