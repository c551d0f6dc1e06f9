package domain

// BacktestResult bundles all error metrics for one model over one held-out
// window, together with the raw aligned value arrays.
type BacktestResult struct {
	MAE                 float64   `json:"mae"`
	MSE                 float64   `json:"mse"`
	RMSE                float64   `json:"rmse"`
	MAPE                float64   `json:"mape"`
	R2                  float64   `json:"r2"`
	DirectionalAccuracy float64   `json:"directional_accuracy"`
	PredictedValues     []float64 `json:"predicted_values"`
	ActualValues        []float64 `json:"actual_values"`
}

// RadarAxes are the three 0-100 score components used for radar rendering.
// They are the same components the ranking score blends.
type RadarAxes struct {
	MAPEScore      float64 `json:"mape_score"`      // max(0, 100 - MAPE)
	R2Score        float64 `json:"r2_score"`        // max(0, R2 * 100)
	DirectionScore float64 `json:"direction_score"` // directional accuracy as-is
}

// ModelEvaluation is one model's backtest outcome plus its ranking score.
type ModelEvaluation struct {
	ModelID string         `json:"model_id"`
	Result  BacktestResult `json:"result"`
	Score   int            `json:"score"` // 0..100
	Radar   RadarAxes      `json:"radar"`
}
