package forecast

import (
	"math"

	"market-forecast-lab/internal/domain"
)

// Auto ARIMA tuning constants.
const (
	autoDiffThreshold = 0.3  // |corr with index| above this triggers one differencing pass
	autoMaxAROrder    = 5    // AR order searched over lags 1..5
	autoStabilityCap  = 0.95 // AR coefficients scaled so their |sum| stays below this
)

// AutoARIMA is a self-configuring AR/MA heuristic. It decides whether to
// difference once by correlating the series with its index, picks the AR
// order 1..5 by the strongest lagged autocorrelation, sets MA order to
// max(1, p-1), and derives coefficients from the lag correlations directly
// rather than via Yule-Walker or MLE. The recursion degrades to a flat
// forecast on very short series instead of falling back to another model.
func AutoARIMA(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	dates, err := forecastDates(series, horizon)
	if err != nil {
		return nil, err
	}
	values := series.FieldValues(targetField)
	lastValue := values[len(values)-1]

	// Differencing decision: a strong linear trend means the level series
	// is non-stationary, so model the first differences instead.
	differenced := math.Abs(indexCorrelation(values)) > autoDiffThreshold
	work := values
	if differenced {
		work = firstDifferences(values)
	}

	if len(work) < 2 {
		return constantRows(dates, targetField, lastValue), nil
	}

	p, phi := fitARCoefficients(work)
	theta := fitMACoefficients(work, p)

	// One-step residual of the AR part seeds the MA recursion; future
	// shocks are unknown and taken as zero after it fades.
	residual := work[len(work)-1] - arPrediction(work[:len(work)-1], phi, mean(work))

	recent := make([]float64, len(work))
	copy(recent, work)
	workMean := mean(work)

	out := make([]float64, horizon)
	level := lastValue
	for i := 0; i < horizon; i++ {
		next := arPrediction(recent, phi, workMean)
		for j, t := range theta {
			// The residual's influence decays one lag per step.
			if i == j {
				next += t * residual
			}
		}
		recent = append(recent, next)
		if differenced {
			level += next
			out[i] = level
		} else {
			out[i] = next
			level = next
		}
	}
	return predictionRows(dates, targetField, out), nil
}

// fitARCoefficients picks the AR order by the strongest |autocorrelation|
// over lags 1..5 and derives each coefficient from the autocorrelation at
// its lag, scaled down so the sum stays inside the stability cap.
func fitARCoefficients(work []float64) (int, []float64) {
	bestLag := 1
	bestAbs := 0.0
	for lag := 1; lag <= autoMaxAROrder && lag < len(work); lag++ {
		ac := math.Abs(autocorrelation(work, lag))
		if ac > bestAbs {
			bestAbs = ac
			bestLag = lag
		}
	}

	phi := make([]float64, bestLag)
	sumAbs := 0.0
	for k := 1; k <= bestLag; k++ {
		phi[k-1] = autocorrelation(work, k)
		sumAbs += math.Abs(phi[k-1])
	}
	if sumAbs > autoStabilityCap {
		scale := autoStabilityCap / sumAbs
		for k := range phi {
			phi[k] *= scale
		}
	}
	return bestLag, phi
}

// fitMACoefficients derives max(1, p-1) MA coefficients from the
// autocorrelations just beyond the AR order, at half strength.
func fitMACoefficients(work []float64, p int) []float64 {
	q := p - 1
	if q < 1 {
		q = 1
	}
	theta := make([]float64, q)
	for j := 1; j <= q; j++ {
		theta[j-1] = 0.5 * autocorrelation(work, p+j)
	}
	return theta
}

// arPrediction evaluates the AR recursion against the tail of recent,
// anchored at the working mean so the process stays centered.
func arPrediction(recent []float64, phi []float64, workMean float64) float64 {
	sumPhi := 0.0
	next := 0.0
	for k, coef := range phi {
		idx := len(recent) - 1 - k
		if idx < 0 {
			break
		}
		next += coef * recent[idx]
		sumPhi += coef
	}
	return next + workMean*(1-sumPhi)
}
