package domain

// ForecastRun is one persisted model invocation: the parameters plus the
// prediction rows it produced. Runs are append-only history.
type ForecastRun struct {
	RunID       string          `json:"run_id"`
	DatasetID   string          `json:"dataset_id"`
	ModelID     string          `json:"model_id"`
	TargetField string          `json:"target_field"`
	Horizon     int             `json:"horizon"`
	CreatedAtMs int64           `json:"created_at_ms"`
	Predictions []PredictionRow `json:"predictions"`
}

// EvaluationRecord is one persisted backtest outcome, keyed by the run
// that produced it.
type EvaluationRecord struct {
	RunID          string         `json:"run_id"`
	DatasetID      string         `json:"dataset_id"`
	ModelID        string         `json:"model_id"`
	TargetField    string         `json:"target_field"`
	BacktestWindow int            `json:"backtest_window"`
	Score          int            `json:"score"`
	Result         BacktestResult `json:"result"`
	CreatedAtMs    int64          `json:"created_at_ms"`
}
