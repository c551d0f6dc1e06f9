package forecast

import (
	"math"

	"market-forecast-lab/internal/domain"
)

// LSTM signal windows and their weight decay rates. The short-window
// signal starts heaviest and decays fastest, so the blend favors
// short-term momentum early in the horizon and long-term momentum later.
var lstmSignals = [3]struct {
	window int
	base   float64
	decay  float64
}{
	{window: 3, base: 0.5, decay: 0.2},
	{window: 7, base: 0.3, decay: 0.1},
	{window: 14, base: 0.2, decay: 0.05},
}

// LSTM is a memory-flavored heuristic. Three "pattern" signals are the
// average first differences over windows 3, 7 and 14 (0 when the history
// is too short). Each predicted day blends them with exponentially
// decaying weights and adds the blended change to the previous prediction.
func LSTM(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)

	signals := [3]float64{}
	for i, s := range lstmSignals {
		signals[i] = avgStep(values, s.window)
	}

	out := make([]float64, horizon)
	current := values[len(values)-1]
	for day := 1; day <= horizon; day++ {
		weightSum := 0.0
		change := 0.0
		for i, s := range lstmSignals {
			w := s.base * math.Exp(-s.decay*float64(day))
			change += w * signals[i]
			weightSum += w
		}
		current += change / weightSum
		out[day-1] = current
	}
	return predictionRows(dates, targetField, out), nil
}

// Transformer attention-ish blending constants.
const (
	transformerCycleLag    = 7   // weekly autocorrelation feeds the cycle factor
	transformerCycleWeight = 0.1 // how much the cycle factor bends each step
)

// Transformer is an attention-flavored heuristic. For every predicted day
// it re-fits three linear-regression trends over windows 5, 10 and 20 of
// the working slice (history plus predictions made so far), blends their
// slopes with weights that shift from the short window toward the long
// window as the horizon progresses, dampens the step by a
// coefficient-of-variation volatility measure, and bends it by a
// tanh-normalized lag-7 autocorrelation cycle factor.
func Transformer(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)

	working := make([]float64, len(values))
	copy(working, values)

	out := make([]float64, horizon)
	for day := 1; day <= horizon; day++ {
		slope5 := tailSlope(working, 5)
		slope10 := tailSlope(working, 10)
		slope20 := tailSlope(working, 20)

		progress := float64(day) / float64(horizon)
		w5 := 0.6 * (1 - progress)
		w10 := 0.4
		w20 := 0.6 * progress
		blended := (w5*slope5 + w10*slope10 + w20*slope20) / (w5 + w10 + w20)

		volatility := 0.0
		if m := mean(working); m != 0 {
			volatility = stdDev(working) / math.Abs(m)
		}
		damp := 1 / (1 + volatility)

		cycle := math.Tanh(autocorrelation(working, transformerCycleLag))

		next := working[len(working)-1] + blended*damp*(1+transformerCycleWeight*cycle)
		working = append(working, next)
		out[day-1] = next
	}
	return predictionRows(dates, targetField, out), nil
}
