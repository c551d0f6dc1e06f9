package forecast

import (
	"market-forecast-lab/internal/domain"
)

// Smoothing constants shared by the exponential models.
const (
	smoothingAlpha = 0.3 // level smoothing
	holtBeta       = 0.2 // trend smoothing
)

// LinearRegression fits ordinary least squares of the target against the
// row index and extrapolates the line forward. Day i is evaluated at
// x = n + i, i = 1..horizon.
func LinearRegression(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	slope, intercept := olsFit(values)

	out := make([]float64, horizon)
	n := float64(len(values))
	for i := 0; i < horizon; i++ {
		out[i] = slope*(n+float64(i+1)) + intercept
	}
	return predictionRows(dates, targetField, out), nil
}

// MovingAverage repeats the mean of the last 5 values for every predicted
// day.
func MovingAverage(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	return constantRows(dates, targetField, tailMean(values, 5)), nil
}

// ExponentialSmoothing runs single exponential smoothing (alpha 0.3)
// seeded at the first value and repeats the final smoothed value.
func ExponentialSmoothing(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	return constantRows(dates, targetField, smoothedLevel(values)), nil
}

// smoothedLevel recurses single exponential smoothing across the whole
// series.
func smoothedLevel(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := values[0]
	for _, v := range values[1:] {
		s = smoothingAlpha*v + (1-smoothingAlpha)*s
	}
	return s
}

// DoubleExponential is Holt's linear method: level/trend recursion with
// alpha 0.3 and beta 0.2, seeded level = first value and trend = second
// minus first. Forecast for day h is level + h*trend.
func DoubleExponential(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)

	level := values[0]
	trend := 0.0
	if len(values) > 1 {
		trend = values[1] - values[0]
	}
	for _, v := range values[1:] {
		prevLevel := level
		level = smoothingAlpha*v + (1-smoothingAlpha)*(level+trend)
		trend = holtBeta*(level-prevLevel) + (1-holtBeta)*trend
	}

	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = level + float64(i+1)*trend
	}
	return predictionRows(dates, targetField, out), nil
}

// ARIMA is an AR-flavored heuristic: the average first difference over the
// last 4 points, added recursively to the last value. Falls back to
// ExponentialSmoothing when fewer than 4 points are available.
func ARIMA(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	if len(series) < 4 {
		return ExponentialSmoothing(series, targetField, horizon)
	}
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	step := avgStep(values, 4)

	out := make([]float64, horizon)
	current := values[len(values)-1]
	for i := 0; i < horizon; i++ {
		current += step
		out[i] = current
	}
	return predictionRows(dates, targetField, out), nil
}

// seasonalPeriod is the assumed weekly seasonality of daily financial data.
const seasonalPeriod = 7

// SeasonalNaive repeats the last full week: the predicted value at offset
// i is the actual value from i mod 7 days before the series end. Falls
// back to MovingAverage when fewer than 7 points are available.
func SeasonalNaive(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	if len(series) < seasonalPeriod {
		return MovingAverage(series, targetField, horizon)
	}
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)

	lastPeriod := values[len(values)-seasonalPeriod:]
	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = lastPeriod[i%seasonalPeriod]
	}
	return predictionRows(dates, targetField, out), nil
}

// meanReversionSpeed is the fraction of the gap to the series mean closed
// per predicted day.
const meanReversionSpeed = 0.1

// MeanReversion drifts the last value toward the series mean, each
// predicted value becoming the base for the next.
func MeanReversion(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	m := mean(values)

	out := make([]float64, horizon)
	current := values[len(values)-1]
	for i := 0; i < horizon; i++ {
		current += meanReversionSpeed * (m - current)
		out[i] = current
	}
	return predictionRows(dates, targetField, out), nil
}
