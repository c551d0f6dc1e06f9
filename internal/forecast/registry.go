// Package forecast implements the model library: a fixed catalog of
// time-series forecasting heuristics sharing one contract. Every model
// takes an ordered series, a target column and a horizon, and returns
// exactly horizon prediction rows dated 1..horizon calendar days after the
// last input row, values rounded to 2 decimals. Models never fail on short
// input; they fall back to a simpler model or degrade to a flat forecast.
//
// The model names borrow the vocabulary of real algorithm families
// (random forest, LSTM, Prophet, ...) but the implementations are
// lightweight heuristics, not the textbook algorithms.
package forecast

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"market-forecast-lab/internal/domain"
)

// Registry errors.
var (
	ErrUnknownModel = errors.New("unknown model id")
	ErrEmptySeries  = errors.New("series is empty")
	ErrBadHorizon   = errors.New("horizon must be >= 1")
)

// ModelFunc runs one forecasting model over a series.
type ModelFunc func(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error)

// Model ids. Stable identifiers used by the API, storage and reports.
const (
	ModelLinearRegression     = "linear_regression"
	ModelMovingAverage        = "moving_average"
	ModelExponentialSmoothing = "exponential_smoothing"
	ModelDoubleExponential    = "double_exponential"
	ModelARIMA                = "arima"
	ModelAutoARIMA            = "auto_arima"
	ModelSeasonalNaive        = "seasonal_naive"
	ModelMeanReversion        = "mean_reversion"
	ModelRandomForest         = "random_forest"
	ModelSVR                  = "svr"
	ModelXGBoost              = "xgboost"
	ModelProphet              = "prophet"
	ModelLSTM                 = "lstm"
	ModelTransformer          = "transformer"
	ModelBSTS                 = "bsts"
	ModelGAM                  = "gam"
)

// Entry pairs a model descriptor with its runnable function.
type Entry struct {
	Descriptor domain.ModelDescriptor
	Run        ModelFunc
}

// Registry is the model catalog. All dispatch (single predict, compare-all,
// backtest-all) goes through it; adding a model is one entry here.
//
// The XGBoost and BSTS heuristics inject uniform random noise into their
// forecasts. The registry owns the seed for that noise: each invocation of
// a noisy model gets a fresh generator from the seed, so a registry built
// with WithSeed produces reproducible output for them too.
type Registry struct {
	seed    int64
	entries []Entry
	byID    map[string]int
}

// Option configures a Registry.
type Option func(*Registry)

// WithSeed fixes the random seed used by the noise-injecting models.
func WithSeed(seed int64) Option {
	return func(r *Registry) { r.seed = seed }
}

// NewRegistry builds the full model catalog in presentation order.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{seed: time.Now().UnixNano()}
	for _, opt := range opts {
		opt(r)
	}

	add := func(d domain.ModelDescriptor, fn ModelFunc) {
		r.entries = append(r.entries, Entry{Descriptor: d, Run: fn})
	}

	add(domain.ModelDescriptor{
		ID:          ModelLinearRegression,
		DisplayName: "Linear Regression",
		Description: "Ordinary least squares of the target against the row index, extrapolated forward.",
		Category:    domain.CategoryTraditional,
	}, LinearRegression)
	add(domain.ModelDescriptor{
		ID:          ModelMovingAverage,
		DisplayName: "Moving Average",
		Description: "Mean of the last 5 values, repeated for every predicted day.",
		Category:    domain.CategoryTraditional,
	}, MovingAverage)
	add(domain.ModelDescriptor{
		ID:          ModelExponentialSmoothing,
		DisplayName: "Exponential Smoothing",
		Description: "Single exponential smoothing (alpha 0.3), final smoothed value repeated.",
		Category:    domain.CategoryTraditional,
	}, ExponentialSmoothing)
	add(domain.ModelDescriptor{
		ID:          ModelDoubleExponential,
		DisplayName: "Double Exponential (Holt)",
		Description: "Holt level/trend recursion (alpha 0.3, beta 0.2), forecast level + h*trend.",
		Category:    domain.CategoryTraditional,
	}, DoubleExponential)
	add(domain.ModelDescriptor{
		ID:          ModelARIMA,
		DisplayName: "ARIMA",
		Description: "Average first difference over the last 4 points, added recursively.",
		Category:    domain.CategoryTraditional,
	}, ARIMA)
	add(domain.ModelDescriptor{
		ID:          ModelAutoARIMA,
		DisplayName: "Auto ARIMA",
		Description: "Differencing by trend correlation, AR order by strongest lagged autocorrelation, heuristic coefficients.",
		Category:    domain.CategoryTraditional,
	}, AutoARIMA)
	add(domain.ModelDescriptor{
		ID:          ModelSeasonalNaive,
		DisplayName: "Seasonal Naive",
		Description: "Repeats the last full week assuming period-7 seasonality.",
		Category:    domain.CategoryTraditional,
	}, SeasonalNaive)
	add(domain.ModelDescriptor{
		ID:          ModelMeanReversion,
		DisplayName: "Mean Reversion",
		Description: "Drifts toward the series mean at 0.1/day, applied recursively.",
		Category:    domain.CategoryTraditional,
	}, MeanReversion)
	add(domain.ModelDescriptor{
		ID:          ModelRandomForest,
		DisplayName: "Random Forest",
		Description: "Fixed ensemble of four moving averages blended with static weights.",
		Category:    domain.CategoryML,
	}, RandomForest)
	add(domain.ModelDescriptor{
		ID:          ModelSVR,
		DisplayName: "SVR",
		Description: "Normalized trend strength with exponentially decaying extrapolation.",
		Category:    domain.CategoryML,
	}, SVR)
	add(domain.ModelDescriptor{
		ID:          ModelXGBoost,
		DisplayName: "XGBoost",
		Description: "Five windowed weak learners, residual-weighted, with per-day noise injection.",
		Category:    domain.CategoryML,
	}, r.noisy(XGBoost))
	add(domain.ModelDescriptor{
		ID:          ModelProphet,
		DisplayName: "Prophet",
		Description: "Linear trend plus additive weekly seasonality and an optional half-series level shift.",
		Category:    domain.CategoryML,
	}, Prophet)
	add(domain.ModelDescriptor{
		ID:          ModelLSTM,
		DisplayName: "LSTM",
		Description: "Three windowed momentum signals blended with time-decaying weights, recursed forward.",
		Category:    domain.CategoryDL,
	}, LSTM)
	add(domain.ModelDescriptor{
		ID:          ModelTransformer,
		DisplayName: "Transformer",
		Description: "Per-day re-fit of three regression trends, volatility-dampened, with a lag-7 cycle factor.",
		Category:    domain.CategoryDL,
	}, Transformer)
	add(domain.ModelDescriptor{
		ID:          ModelBSTS,
		DisplayName: "BSTS",
		Description: "Trend and weekly seasonal components with uncertainty-scaled random perturbations.",
		Category:    domain.CategoryML,
	}, r.noisy(BSTS))
	add(domain.ModelDescriptor{
		ID:          ModelGAM,
		DisplayName: "GAM",
		Description: "Sum of trend, weekday effect, non-linear momentum and a mean-reversion level term.",
		Category:    domain.CategoryML,
	}, GAM)

	r.byID = make(map[string]int, len(r.entries))
	for i, e := range r.entries {
		r.byID[e.Descriptor.ID] = i
	}
	return r
}

// noisy adapts a model that consumes a random source into a ModelFunc.
// A fresh generator is derived from the registry seed for every call, so
// two identical calls on the same registry produce identical output.
func (r *Registry) noisy(fn func(rng *rand.Rand, series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error)) ModelFunc {
	return func(series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
		return fn(rand.New(rand.NewSource(r.seed)), series, targetField, horizon)
	}
}

// Models returns all descriptors in presentation order.
func (r *Registry) Models() []domain.ModelDescriptor {
	out := make([]domain.ModelDescriptor, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Descriptor
	}
	return out
}

// Entries returns the catalog in presentation order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Get looks a model up by id.
func (r *Registry) Get(id string) (Entry, error) {
	i, ok := r.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	return r.entries[i], nil
}

// Run dispatches one model by id.
func (r *Registry) Run(id string, series domain.Series, targetField string, horizon int) ([]domain.PredictionRow, error) {
	e, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return e.Run(series, targetField, horizon)
}

// Len returns the catalog size.
func (r *Registry) Len() int { return len(r.entries) }
