package forecast

import (
	"math"
	"math/rand"

	"market-forecast-lab/internal/domain"
)

// bstsHorizonNoise scales the horizon-widening perturbation: 1% of the
// last value per sqrt(day).
const bstsHorizonNoise = 0.01

// BSTS is a structural-time-series-flavored heuristic. The trend is an
// OLS fit whose uncertainty is the standard deviation of its residuals;
// the seasonal component is the mean detrended value per weekday with a
// per-weekday spread. Each predicted day adds three independent uniform
// perturbations: one scaled by the trend uncertainty, one by that
// weekday's seasonal uncertainty, and one by sqrt(day) * 1% of the last
// value, so the band widens along the horizon. The random source comes
// from the registry; a fixed seed makes the output reproducible.
func BSTS(rng *rand.Rand, series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	lastValue := values[len(values)-1]

	slope, intercept := olsFit(values)
	residuals := detrend(values)
	trendUncertainty := stdDev(residuals)
	weekly := weekdayProfile(series, residuals)

	n := float64(len(values))
	out := make([]float64, horizon)
	for day := 1; day <= horizon; day++ {
		v := slope*(n+float64(day)) + intercept

		var seasonalMean, seasonalStd float64
		if wd, ok := weekdayOf(dates[day-1]); ok {
			stats := weekly[wd]
			seasonalMean = stats.mean
			seasonalStd = stats.std
		}
		v += seasonalMean

		v += uniform(rng) * trendUncertainty
		v += uniform(rng) * seasonalStd
		v += uniform(rng) * math.Sqrt(float64(day)) * bstsHorizonNoise * lastValue

		out[day-1] = v
	}
	return predictionRows(dates, targetField, out), nil
}

// uniform draws from [-1, 1).
func uniform(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}
