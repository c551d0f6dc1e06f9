// Package compare orchestrates the full model comparison.
// Flow: slice working window → run every model → backtest every model →
// score and rank
package compare

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"market-forecast-lab/internal/backtest"
	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/forecast"
	"market-forecast-lab/internal/observability"
)

// Orchestration errors. Everything below the orchestration boundary
// degrades to safe defaults; these are the only conditions surfaced to
// the caller.
var (
	ErrNoRows        = errors.New("series has no rows")
	ErrMissingTarget = errors.New("target column not found in series")
)

// Defaults applied when an option is left zero. Horizon and windows are
// bounded 1..30 at the API boundary.
const (
	DefaultHorizon        = 7
	DefaultBacktestWindow = 7
	DefaultWindow         = 30
)

// Progress reports one finished model during a comparison run.
type Progress struct {
	ModelID    string                 `json:"model_id"`
	Index      int                    `json:"index"` // 1-based position in the catalog
	Total      int                    `json:"total"`
	Evaluation domain.ModelEvaluation `json:"evaluation"`
}

// Comparison is the output of a compare-all run: per-model predictions
// and evaluations keyed by model id, plus the score-ranked order.
type Comparison struct {
	TargetField string                            `json:"target_field"`
	Horizon     int                               `json:"horizon"`
	Predictions map[string][]domain.PredictionRow `json:"predictions"`
	Evaluations map[string]domain.ModelEvaluation `json:"evaluations"`
	Ranking     []domain.ModelEvaluation          `json:"ranking"`
}

// Runner coordinates prediction, backtesting and scoring across the
// whole model catalog.
type Runner struct {
	registry       *forecast.Registry
	horizon        int
	backtestWindow int
	window         int
	onModel        func(Progress)
	logger         zerolog.Logger
}

// Options for creating a Runner.
type Options struct {
	// Required model catalog.
	Registry *forecast.Registry

	// Forecast length in days. Defaults to DefaultHorizon.
	Horizon int

	// Held-out tail length for backtesting. Defaults to DefaultBacktestWindow.
	BacktestWindow int

	// Working window: only the last Window rows feed the models, mirroring
	// the chart's prediction start point. 0 means DefaultWindow; negative
	// means the whole series.
	Window int

	// OnModel, when set, is invoked after each model finishes. Drives the
	// websocket progress stream.
	OnModel func(Progress)

	Logger zerolog.Logger
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Horizon == 0 {
		opts.Horizon = DefaultHorizon
	}
	if opts.BacktestWindow == 0 {
		opts.BacktestWindow = DefaultBacktestWindow
	}
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	return &Runner{
		registry:       opts.Registry,
		horizon:        opts.Horizon,
		backtestWindow: opts.BacktestWindow,
		window:         opts.Window,
		onModel:        opts.OnModel,
		logger:         opts.Logger,
	}
}

// Predict runs a single model over the working window.
func (r *Runner) Predict(series domain.Series, targetField, modelID string) ([]domain.PredictionRow, error) {
	working, err := r.workingWindow(series, targetField)
	if err != nil {
		return nil, err
	}
	return r.registry.Run(modelID, working, targetField, r.horizon)
}

// Run executes the full comparison: every model in the catalog predicts
// over the working window, is backtested against the held-out tail, and
// is ranked by score. Models run sequentially; the context is checked
// between models so a disconnected client stops the run.
func (r *Runner) Run(ctx context.Context, series domain.Series, targetField string) (*Comparison, error) {
	working, err := r.workingWindow(series, targetField)
	if err != nil {
		return nil, err
	}

	total := r.registry.Len()
	out := &Comparison{
		TargetField: targetField,
		Horizon:     r.horizon,
		Predictions: make(map[string][]domain.PredictionRow, total),
		Evaluations: make(map[string]domain.ModelEvaluation, total),
		Ranking:     make([]domain.ModelEvaluation, 0, total),
	}

	for i, entry := range r.registry.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := entry.Descriptor.ID

		rows, err := entry.Run(working, targetField, r.horizon)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", id, err)
		}
		out.Predictions[id] = rows

		result, btErr := backtest.Run(working, targetField, entry.Run, r.backtestWindow)
		observability.RecordBacktest()
		if btErr != nil {
			r.logger.Debug().Err(btErr).Str("model", id).Msg("backtest degraded to empty result")
		}
		ev := backtest.Evaluate(id, result)
		out.Evaluations[id] = ev
		out.Ranking = append(out.Ranking, ev)

		r.logger.Debug().
			Str("model", id).
			Int("score", ev.Score).
			Float64("mape", result.MAPE).
			Msg("model evaluated")

		if r.onModel != nil {
			r.onModel(Progress{ModelID: id, Index: i + 1, Total: total, Evaluation: ev})
		}
	}

	// Score descending; catalog order breaks ties.
	sort.SliceStable(out.Ranking, func(i, j int) bool {
		return out.Ranking[i].Score > out.Ranking[j].Score
	})

	r.logger.Info().
		Str("target", targetField).
		Int("models", total).
		Int("rows", len(working)).
		Msg("comparison completed")

	return out, nil
}

// workingWindow validates the series and slices it to the configured
// window.
func (r *Runner) workingWindow(series domain.Series, targetField string) (domain.Series, error) {
	if len(series) == 0 {
		return nil, ErrNoRows
	}
	if !series.HasField(targetField) {
		return nil, fmt.Errorf("%w: %q", ErrMissingTarget, targetField)
	}
	if r.window > 0 {
		return series.Tail(r.window), nil
	}
	return series, nil
}
