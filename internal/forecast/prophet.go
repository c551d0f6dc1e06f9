package forecast

import (
	"math"

	"market-forecast-lab/internal/domain"
)

// Prophet level-shift gating constants.
const (
	prophetShiftMinPoints = 60  // half/half shift only considered with this much history
	prophetShiftMinEffect = 0.1 // and only applied when it exceeds 10% of the series mean
)

// Prophet is an additive decomposition heuristic: a linear trend fitted by
// OLS against the row index, a weekly seasonal offset (mean detrended
// deviation per day of week), and a level-shift adjustment taken as half
// the difference between the detrended means of the two halves of the
// series. The shift needs at least 60 points and a magnitude above 10% of
// the series mean, otherwise it is ignored.
func Prophet(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	slope, intercept := olsFit(values)

	residuals := detrend(values)
	weekly := weekdayProfile(series, residuals)

	shift := 0.0
	if len(residuals) >= prophetShiftMinPoints {
		half := len(residuals) / 2
		candidate := (mean(residuals[half:]) - mean(residuals[:half])) / 2
		if math.Abs(candidate) > prophetShiftMinEffect*math.Abs(mean(values)) {
			shift = candidate
		}
	}

	n := float64(len(values))
	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		v := slope*(n+float64(i+1)) + intercept + shift
		if wd, ok := weekdayOf(dates[i]); ok {
			v += weekly[wd].mean
		}
		out[i] = v
	}
	return predictionRows(dates, targetField, out), nil
}
