package forecast

import (
	"math"

	"market-forecast-lab/internal/domain"
)

// GAM term constants.
const (
	gamWindow            = 10   // rolling window behind the level and z-score terms
	gamMomentumBoost     = 0.2  // non-linear amplification of the momentum ratio
	gamMomentumScale     = 0.1  // momentum ratio converted to value units via the level
	gamReversionStrength = 0.05 // pull of the mean-reversion level term
)

// GAM is an additive-model heuristic: each predicted value is the sum of
// a linear trend, a weekday effect (detrended mean per day of week), a
// non-linear momentum term (the recent 3-point momentum ratio amplified by
// 1 + 0.2*|momentum|), and a mean-reversion level term (-0.05 * zScore *
// level). A 10-point window rolls forward over the predictions, so the
// momentum and level terms react to the model's own output.
func GAM(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)

	slope, intercept := olsFit(values)
	weekly := weekdayProfile(series, detrend(values))

	window := make([]float64, 0, gamWindow)
	start := len(values) - gamWindow
	if start < 0 {
		start = 0
	}
	window = append(window, values[start:]...)

	n := float64(len(values))
	out := make([]float64, horizon)
	for day := 1; day <= horizon; day++ {
		v := slope*(n+float64(day)) + intercept

		if wd, ok := weekdayOf(dates[day-1]); ok {
			v += weekly[wd].mean
		}

		level := mean(window)
		v += momentumTerm(window, level)

		if sd := stdDev(window); sd > 0 {
			z := (window[len(window)-1] - level) / sd
			v -= gamReversionStrength * z * level
		}

		window = append(window, v)
		if len(window) > gamWindow {
			window = window[1:]
		}
		out[day-1] = v
	}
	return predictionRows(dates, targetField, out), nil
}

// momentumTerm computes the 3-point momentum ratio of the window,
// amplifies it non-linearly, and converts it back to value units.
func momentumTerm(window []float64, level float64) float64 {
	if len(window) < 3 {
		return 0
	}
	base := window[len(window)-3]
	if base == 0 {
		return 0
	}
	momentum := (window[len(window)-1] - base) / math.Abs(base)
	return momentum * (1 + gamMomentumBoost*math.Abs(momentum)) * level * gamMomentumScale
}
