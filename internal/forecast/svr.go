package forecast

import (
	"math"

	"market-forecast-lab/internal/domain"
)

// svrDecayRate controls how fast the extrapolated trend flattens out.
const svrDecayRate = 0.1

// SVR is a support-vector-flavored heuristic. Trend strength is the gap
// between the mean of the last 5 values and the mean of the 5 before
// them, normalized by the full-series standard deviation. The forecast
// extends the last value by trend * stdDev * exp(-0.1*i) * i, so the
// projected move grows with the day number but decays toward flat.
func SVR(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	lastValue := values[len(values)-1]
	sd := stdDev(values)

	trend := 0.0
	if sd > 0 && len(values) >= 2 {
		recent := tailMean(values, 5)
		preceding := precedingMean(values, 5)
		trend = (recent - preceding) / sd
	}

	out := make([]float64, horizon)
	for day := 1; day <= horizon; day++ {
		out[day-1] = lastValue + trend*sd*math.Exp(-svrDecayRate*float64(day))*float64(day)
	}
	return predictionRows(dates, targetField, out), nil
}

// precedingMean is the mean of the window immediately before the last
// window values. With fewer than 2*window points it takes whatever
// earlier values exist, and degenerates to the full mean when none do.
func precedingMean(values []float64, window int) float64 {
	if len(values) <= window {
		return mean(values)
	}
	end := len(values) - window
	start := end - window
	if start < 0 {
		start = 0
	}
	return mean(values[start:end])
}
