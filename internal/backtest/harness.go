// Package backtest evaluates forecasting models against held-out data.
// The harness splits a series into a training slice and a test tail, runs
// a model over the training slice, and measures its predictions against
// the tail. The scorer collapses the resulting metrics into a single
// 0-100 ranking score.
package backtest

import (
	"fmt"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/forecast"
	"market-forecast-lab/internal/metrics"
)

// Run backtests one model over the last testWindow rows of the series.
// The model trains on everything before the tail and predicts testWindow
// days; predictions are compared position-for-position with the tail.
//
// A series shorter than 2*testWindow cannot give the model as much
// history as the window it is judged on, so the harness returns an
// all-zero result with empty value arrays and no error. A model failure
// degrades to the same all-zero result but also returns the cause, so
// callers can tell a failing model from a short series; the result is
// usable either way.
func Run(series domain.Series, targetField string, model forecast.ModelFunc, testWindow int) (domain.BacktestResult, error) {
	if testWindow < 1 || len(series) < 2*testWindow {
		return emptyResult(), nil
	}

	split := len(series) - testWindow
	train := series[:split]
	test := series[split:]

	rows, err := model(train, targetField, testWindow)
	if err != nil {
		return emptyResult(), fmt.Errorf("model run: %w", err)
	}
	if len(rows) != testWindow {
		return emptyResult(), fmt.Errorf("model returned %d rows, want %d", len(rows), testWindow)
	}

	actual := test.FieldValues(targetField)
	predicted := make([]float64, len(rows))
	for i, r := range rows {
		predicted[i], _ = r.Value(targetField)
	}

	return domain.BacktestResult{
		MAE:                 metrics.MAE(actual, predicted),
		MSE:                 metrics.MSE(actual, predicted),
		RMSE:                metrics.RMSE(actual, predicted),
		MAPE:                metrics.MAPE(actual, predicted),
		R2:                  metrics.R2(actual, predicted),
		DirectionalAccuracy: metrics.DirectionalAccuracy(actual, predicted),
		PredictedValues:     predicted,
		ActualValues:        actual,
	}, nil
}

func emptyResult() domain.BacktestResult {
	return domain.BacktestResult{
		PredictedValues: []float64{},
		ActualValues:    []float64{},
	}
}
