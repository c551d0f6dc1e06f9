package forecast

import (
	"math"
	"time"

	"market-forecast-lab/internal/domain"
)

// round2 rounds to 2 decimal places; every predicted value goes through it.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// forecastDates validates the common model contract and produces the
// prediction dates: 1..horizon calendar days after the last input row.
// No trading-calendar awareness, weekends and holidays included.
func forecastDates(series domain.Series, horizon int) ([]string, error) {
	if horizon < 1 {
		return nil, ErrBadHorizon
	}
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	last, err := series.LastDate()
	if err != nil {
		return nil, err
	}
	dates := make([]string, horizon)
	for i := 0; i < horizon; i++ {
		dates[i] = last.AddDate(0, 0, i+1).Format(domain.DateLayout)
	}
	return dates, nil
}

// predictionRows pairs dates with values, rounding each value.
func predictionRows(dates []string, field string, values []float64) []domain.PredictionRow {
	rows := make([]domain.PredictionRow, len(dates))
	for i, d := range dates {
		rows[i] = domain.NewPredictionRow(d, field, round2(values[i]))
	}
	return rows
}

// constantRows repeats a single value across all prediction dates.
func constantRows(dates []string, field string, value float64) []domain.PredictionRow {
	rows := make([]domain.PredictionRow, len(dates))
	v := round2(value)
	for i, d := range dates {
		rows[i] = domain.NewPredictionRow(d, field, v)
	}
	return rows
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n))
}

// tailMean is the mean of the last window values (the whole slice if it is
// shorter than the window).
func tailMean(values []float64, window int) float64 {
	if window < len(values) {
		values = values[len(values)-window:]
	}
	return mean(values)
}

// recencyWeightedMean weights the last window values linearly, most recent
// heaviest.
func recencyWeightedMean(values []float64, window int) float64 {
	if window < len(values) {
		values = values[len(values)-window:]
	}
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	weightSum := 0.0
	for i, v := range values {
		w := float64(i + 1)
		sum += v * w
		weightSum += w
	}
	return sum / weightSum
}

// avgStep is the average first difference over the last window values.
// Consecutive differences telescope, so this is (last - first) / (m - 1)
// over the window actually available. 0 when fewer than 2 points.
func avgStep(values []float64, window int) float64 {
	m := window
	if m > len(values) {
		m = len(values)
	}
	if m < 2 {
		return 0
	}
	first := values[len(values)-m]
	last := values[len(values)-1]
	return (last - first) / float64(m-1)
}

// olsFit fits y = slope*x + intercept with x = 0..n-1. A single point (or
// none) yields a flat fit through the mean.
func olsFit(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	if len(values) < 2 {
		return 0, mean(values)
	}
	sumX, sumY, sumXY, sumX2 := 0.0, 0.0, 0.0, 0.0
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// tailSlope is the OLS slope over the last window values.
func tailSlope(values []float64, window int) float64 {
	if window < len(values) {
		values = values[len(values)-window:]
	}
	slope, _ := olsFit(values)
	return slope
}

// detrend subtracts the OLS fit from every value.
func detrend(values []float64) []float64 {
	slope, intercept := olsFit(values)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - (slope*float64(i) + intercept)
	}
	return out
}

// indexCorrelation is the Pearson correlation of the values with their row
// index, a cheap trend-presence signal.
func indexCorrelation(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return pearson(xs, values)
}

// autocorrelation is the Pearson correlation of the series with itself at
// the given lag. 0 when the lag leaves fewer than 2 overlapping points.
func autocorrelation(values []float64, lag int) float64 {
	if lag <= 0 || len(values)-lag < 2 {
		return 0
	}
	return pearson(values[:len(values)-lag], values[lag:])
}

func pearson(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}
	mx, my := mean(x), mean(y)
	num, dx2, dy2 := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	if dx2 == 0 || dy2 == 0 {
		return 0
	}
	return num / math.Sqrt(dx2*dy2)
}

// firstDifferences returns values[i+1]-values[i].
func firstDifferences(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

// weekdayStats holds the mean and spread of detrended values per weekday.
type weekdayStats struct {
	mean  float64
	std   float64
	count int
}

// weekdayProfile groups detrended values by the weekday of each row's date.
// Rows with unparseable dates are skipped (ingestion guarantees parseable
// dates, so in practice nothing is dropped).
func weekdayProfile(series domain.Series, detrended []float64) map[time.Weekday]weekdayStats {
	grouped := make(map[time.Weekday][]float64)
	for i, row := range series {
		if i >= len(detrended) {
			break
		}
		t, err := time.Parse(domain.DateLayout, row.Date)
		if err != nil {
			continue
		}
		grouped[t.Weekday()] = append(grouped[t.Weekday()], detrended[i])
	}
	out := make(map[time.Weekday]weekdayStats, len(grouped))
	for wd, vals := range grouped {
		out[wd] = weekdayStats{mean: mean(vals), std: stdDev(vals), count: len(vals)}
	}
	return out
}

// weekdayOf parses a normalized date string.
func weekdayOf(date string) (time.Weekday, bool) {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return 0, false
	}
	return t.Weekday(), true
}
