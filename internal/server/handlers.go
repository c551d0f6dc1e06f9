package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"market-forecast-lab/internal/compare"
	"market-forecast-lab/internal/dataset"
	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/idhash"
	"market-forecast-lab/internal/observability"
	"market-forecast-lab/internal/storage"
)

// maxHorizon bounds horizon and window inputs, mirroring the UI sliders.
const maxHorizon = 30

// forecastRequest is the shared input shape of /api/predict, /api/compare
// and the stream's first frame. Either DatasetID or Rows supplies the
// series.
type forecastRequest struct {
	DatasetID      string        `json:"dataset_id"`
	Rows           domain.Series `json:"rows"`
	Target         string        `json:"target"`
	Model          string        `json:"model"`
	Horizon        int           `json:"horizon"`
	Window         int           `json:"window"`
	BacktestWindow int           `json:"backtest_window"`
}

type errorBody struct {
	Error string `json:"error"`
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
}

// listModels returns the model catalog in presentation order.
func (s *Server) listModels(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"models": s.registry.Models(),
	})
}

// datasetSummary is the upload response: everything the UI needs to render
// the column picker without re-fetching.
type datasetSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Columns     []domain.Column `json:"columns"`
	RowCount    int             `json:"row_count"`
	CreatedAtMs int64           `json:"created_at_ms"`
}

// uploadDataset parses a CSV or JSON body into a dataset and stores it.
// Re-uploading identical data yields the same deterministic id and is not
// an error.
func (s *Server) uploadDataset(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		name = "upload"
	}

	d, err := dataset.Parse(c.Request().Body, name)
	if err != nil {
		observability.RecordIngestionError(err.Error())
		return badRequest(c, err)
	}

	if err := s.datasets.Insert(c.Request().Context(), d); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return err
		}
	} else {
		observability.RecordDatasetIngested(len(d.Rows))
	}

	return c.JSON(http.StatusCreated, datasetSummary{
		ID:          d.ID,
		Name:        d.Name,
		Columns:     d.Columns,
		RowCount:    len(d.Rows),
		CreatedAtMs: d.CreatedAtMs,
	})
}

// getDataset returns a stored dataset with its rows.
func (s *Server) getDataset(c echo.Context) error {
	d, err := s.datasets.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorBody{Error: "dataset not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// predictResponse is the /api/predict output.
type predictResponse struct {
	RunID       string                 `json:"run_id,omitempty"`
	ModelID     string                 `json:"model_id"`
	Target      string                 `json:"target"`
	Horizon     int                    `json:"horizon"`
	Predictions []domain.PredictionRow `json:"predictions"`
}

// predict runs a single model over the request series.
func (s *Server) predict(c echo.Context) error {
	var req forecastRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	series, datasetID, err := s.resolveSeries(c, &req)
	if err != nil {
		return badRequest(c, err)
	}

	runner := compare.New(compare.Options{
		Registry: s.registry,
		Horizon:  boundHorizon(req.Horizon, compare.DefaultHorizon),
		Window:   boundWindow(req.Window),
		Logger:   s.logger,
	})

	start := time.Now()
	rows, err := runner.Predict(series, req.Target, req.Model)
	if err != nil {
		observability.RecordModelRun(req.Model, "error", time.Since(start).Seconds())
		return badRequest(c, err)
	}
	observability.RecordModelRun(req.Model, "ok", time.Since(start).Seconds())

	resp := predictResponse{
		ModelID:     req.Model,
		Target:      req.Target,
		Horizon:     len(rows),
		Predictions: rows,
	}
	if s.runs != nil && datasetID != "" {
		resp.RunID = s.persistRun(c, datasetID, req.Model, req.Target, rows)
	}

	return c.JSON(http.StatusOK, resp)
}

// compare runs the full model panel with backtests and returns the ranked
// comparison.
func (s *Server) compare(c echo.Context) error {
	var req forecastRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	series, datasetID, err := s.resolveSeries(c, &req)
	if err != nil {
		return badRequest(c, err)
	}

	runner := compare.New(compare.Options{
		Registry:       s.registry,
		Horizon:        boundHorizon(req.Horizon, compare.DefaultHorizon),
		BacktestWindow: boundHorizon(req.BacktestWindow, compare.DefaultBacktestWindow),
		Window:         boundWindow(req.Window),
		Logger:         s.logger,
	})

	start := time.Now()
	cmp, err := runner.Run(c.Request().Context(), series, req.Target)
	if err != nil {
		observability.RecordCompareRun("error", 0, time.Since(start).Seconds())
		return badRequest(c, err)
	}
	observability.RecordCompareRun("ok", len(cmp.Ranking), time.Since(start).Seconds())
	observability.DefaultMetrics.LastSuccessfulCompare.Set(float64(time.Now().Unix()))

	if s.evals != nil && datasetID != "" {
		s.persistEvaluations(c, datasetID, req.Target, boundHorizon(req.BacktestWindow, compare.DefaultBacktestWindow), cmp)
	}

	return c.JSON(http.StatusOK, cmp)
}

// resolveSeries picks the request series: a stored dataset when dataset_id
// is set, inline rows otherwise.
func (s *Server) resolveSeries(c echo.Context, req *forecastRequest) (domain.Series, string, error) {
	if req.Target == "" {
		return nil, "", errors.New("target field is required")
	}
	if req.DatasetID != "" {
		d, err := s.datasets.GetByID(c.Request().Context(), req.DatasetID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, "", errors.New("dataset not found")
			}
			return nil, "", err
		}
		return d.Rows, d.ID, nil
	}
	if len(req.Rows) == 0 {
		return nil, "", errors.New("either dataset_id or rows is required")
	}
	return req.Rows, "", nil
}

// persistRun writes one forecast run to history. Failures are logged, not
// surfaced: history is best-effort, the prediction already succeeded.
func (s *Server) persistRun(c echo.Context, datasetID, modelID, target string, rows []domain.PredictionRow) string {
	createdAt := time.Now().UnixMilli()
	run := &domain.ForecastRun{
		RunID:       idhash.ComputeRunID(datasetID, modelID, target, len(rows), createdAt),
		DatasetID:   datasetID,
		ModelID:     modelID,
		TargetField: target,
		Horizon:     len(rows),
		CreatedAtMs: createdAt,
		Predictions: rows,
	}
	if err := s.runs.Insert(c.Request().Context(), run); err != nil {
		s.logger.Warn().Err(err).Str("run_id", run.RunID).Msg("persist forecast run failed")
		return ""
	}
	return run.RunID
}

// persistEvaluations writes the scored compare results to history.
func (s *Server) persistEvaluations(c echo.Context, datasetID, target string, backtestWindow int, cmp *compare.Comparison) {
	createdAt := time.Now().UnixMilli()
	records := make([]*domain.EvaluationRecord, 0, len(cmp.Ranking))
	for _, ev := range cmp.Ranking {
		records = append(records, &domain.EvaluationRecord{
			RunID:          idhash.ComputeRunID(datasetID, ev.ModelID, target, cmp.Horizon, createdAt),
			DatasetID:      datasetID,
			ModelID:        ev.ModelID,
			TargetField:    target,
			BacktestWindow: backtestWindow,
			Score:          ev.Score,
			Result:         ev.Result,
			CreatedAtMs:    createdAt,
		})
	}
	if err := s.evals.InsertBulk(c.Request().Context(), records); err != nil {
		s.logger.Warn().Err(err).Str("dataset_id", datasetID).Msg("persist evaluations failed")
	}
}

// boundHorizon clamps a day-count input to 1..maxHorizon, using def for
// missing values.
func boundHorizon(v, def int) int {
	if v <= 0 {
		return def
	}
	if v > maxHorizon {
		return maxHorizon
	}
	return v
}

// boundWindow keeps the compare package's window convention: 0 means the
// default, negative means the whole series.
func boundWindow(v int) int {
	if v < 0 {
		return -1
	}
	return v
}
