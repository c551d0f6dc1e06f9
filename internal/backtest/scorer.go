package backtest

import (
	"math"

	"market-forecast-lab/internal/domain"
)

// Ranking weights. Directional accuracy dominates: for the intended use
// the direction of the next move matters more than its magnitude.
const (
	weightMAPE      = 0.25
	weightR2        = 0.25
	weightDirection = 0.5
)

// Axes converts a backtest result into its three 0-100 score components.
func Axes(result domain.BacktestResult) domain.RadarAxes {
	return domain.RadarAxes{
		MAPEScore:      math.Max(0, 100-result.MAPE),
		R2Score:        math.Max(0, result.R2*100),
		DirectionScore: result.DirectionalAccuracy,
	}
}

// Score collapses a backtest result into an integer ranking score 0..100.
func Score(result domain.BacktestResult) int {
	axes := Axes(result)
	weighted := axes.MAPEScore*weightMAPE + axes.R2Score*weightR2 + axes.DirectionScore*weightDirection
	return int(math.Round(weighted))
}

// Evaluate bundles one model's backtest into the evaluation record the
// comparison table and radar rendering consume.
func Evaluate(modelID string, result domain.BacktestResult) domain.ModelEvaluation {
	return domain.ModelEvaluation{
		ModelID: modelID,
		Result:  result,
		Score:   Score(result),
		Radar:   Axes(result),
	}
}
