package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/forecast"
	"market-forecast-lab/internal/storage/memory"
)

const sampleCSV = `date,close,volume
2024-01-01,100,1000
2024-01-02,102,1100
2024-01-03,101,900
2024-01-04,104,1200
2024-01-05,106,1300
2024-01-06,105,1250
2024-01-07,108,1400
2024-01-08,110,1500
2024-01-09,109,1450
2024-01-10,112,1600
2024-01-11,114,1700
2024-01-12,113,1650
2024-01-13,116,1800
2024-01-14,118,1900
`

type testEnv struct {
	server *Server
	runs   *memory.ForecastRunStore
	evals  *memory.EvaluationStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	runs := memory.NewForecastRunStore()
	evals := memory.NewEvaluationStore()
	s := New(Options{
		Registry:    forecast.NewRegistry(forecast.WithSeed(1)),
		Datasets:    memory.NewDatasetStore(),
		Runs:        runs,
		Evaluations: evals,
		Logger:      zerolog.Nop(),
	})
	return &testEnv{server: s, runs: runs, evals: evals}
}

func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	rec := httptest.NewRecorder()
	env.server.Echo().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func (env *testEnv) uploadCSV(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/datasets?name=sample.csv", strings.NewReader(sampleCSV))
	req.Header.Set(echoHeaderContentType, "text/csv")
	rec := httptest.NewRecorder()
	env.server.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.NotEmpty(t, summary.ID)
	return summary.ID
}

func TestListModels(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Models []domain.ModelDescriptor `json:"models"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Models, 16)
	assert.Equal(t, "linear_regression", resp.Models[0].ID)
	assert.Equal(t, domain.CategoryTraditional, resp.Models[0].Category)
}

func TestUploadAndGetDataset(t *testing.T) {
	env := newTestEnv(t)

	id := env.uploadCSV(t)

	rec := env.do(t, http.MethodGet, "/api/datasets/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var d domain.Dataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "sample.csv", d.Name)
	assert.Len(t, d.Rows, 14)
	assert.True(t, d.HasNumericColumn("close"))
}

func TestUploadDataset_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	first := env.uploadCSV(t)
	second := env.uploadCSV(t)
	assert.Equal(t, first, second)
}

func TestUploadDataset_BadBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader("open,close\n1,2\n"))
	rec := httptest.NewRecorder()
	env.server.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDataset_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/datasets/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredict_InlineRows(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"rows": [
			{"date": "2024-01-01", "values": {"close": 100}},
			{"date": "2024-01-02", "values": {"close": 101}},
			{"date": "2024-01-03", "values": {"close": 102}},
			{"date": "2024-01-04", "values": {"close": 103}},
			{"date": "2024-01-05", "values": {"close": 104}}
		],
		"target": "close",
		"model": "moving_average",
		"horizon": 3
	}`
	rec := env.do(t, http.MethodPost, "/api/predict", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp predictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Predictions, 3)
	// Mean of the last 5 values, dates continue past the series.
	assert.Equal(t, "2024-01-06", resp.Predictions[0].Date)
	assert.Equal(t, 102.0, resp.Predictions[0].Values["close"])
	assert.True(t, resp.Predictions[0].IsPrediction)
	assert.Empty(t, resp.RunID) // inline rows have no dataset to key history on
}

func TestPredict_DatasetPersistsRun(t *testing.T) {
	env := newTestEnv(t)

	id := env.uploadCSV(t)
	body := `{"dataset_id": "` + id + `", "target": "close", "model": "arima", "horizon": 5}`
	rec := env.do(t, http.MethodPost, "/api/predict", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp predictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RunID)

	run, err := env.runs.GetByID(t.Context(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, "arima", run.ModelID)
	assert.Len(t, run.Predictions, 5)
}

func TestPredict_UnknownModel(t *testing.T) {
	env := newTestEnv(t)

	id := env.uploadCSV(t)
	body := `{"dataset_id": "` + id + `", "target": "close", "model": "oracle", "horizon": 3}`
	rec := env.do(t, http.MethodPost, "/api/predict", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredict_MissingTarget(t *testing.T) {
	env := newTestEnv(t)

	id := env.uploadCSV(t)
	body := `{"dataset_id": "` + id + `", "target": "open", "model": "arima", "horizon": 3}`
	rec := env.do(t, http.MethodPost, "/api/predict", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredict_NoSeries(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/predict", `{"target": "close", "model": "arima"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompare_RankedResult(t *testing.T) {
	env := newTestEnv(t)

	id := env.uploadCSV(t)
	body := `{"dataset_id": "` + id + `", "target": "close", "horizon": 3, "backtest_window": 5}`
	rec := env.do(t, http.MethodPost, "/api/compare", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cmp struct {
		Ranking     []domain.ModelEvaluation          `json:"ranking"`
		Predictions map[string][]domain.PredictionRow `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	require.Len(t, cmp.Ranking, 16)
	require.Len(t, cmp.Predictions, 16)
	for i := 1; i < len(cmp.Ranking); i++ {
		assert.GreaterOrEqual(t, cmp.Ranking[i-1].Score, cmp.Ranking[i].Score)
	}

	// The scored panel lands in history.
	evals, err := env.evals.GetByDatasetID(t.Context(), id)
	require.NoError(t, err)
	assert.Len(t, evals, 16)
}

func TestCompare_ShortSeriesNeverErrors(t *testing.T) {
	env := newTestEnv(t)

	// Two rows cannot support any backtest window; scores degrade to zero
	// results, not errors.
	body := `{
		"rows": [
			{"date": "2024-01-01", "values": {"close": 100}},
			{"date": "2024-01-02", "values": {"close": 101}}
		],
		"target": "close",
		"horizon": 3
	}`
	rec := env.do(t, http.MethodPost, "/api/compare", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cmp struct {
		Ranking []domain.ModelEvaluation `json:"ranking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	require.Len(t, cmp.Ranking, 16)
	for _, ev := range cmp.Ranking {
		assert.Empty(t, ev.Result.PredictedValues)
	}
}

func TestCompare_MissingTarget(t *testing.T) {
	env := newTestEnv(t)

	id := env.uploadCSV(t)
	body := `{"dataset_id": "` + id + `", "target": "open"}`
	rec := env.do(t, http.MethodPost, "/api/compare", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestCompareStream(t *testing.T) {
	env := newTestEnv(t)
	id := env.uploadCSV(t)

	ts := httptest.NewServer(env.server.Echo())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/compare/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	err = conn.WriteJSON(map[string]any{
		"dataset_id":      id,
		"target":          "close",
		"horizon":         3,
		"backtest_window": 5,
	})
	require.NoError(t, err)

	progress := 0
	for {
		var frame streamFrame
		require.NoError(t, conn.ReadJSON(&frame))

		switch frame.Type {
		case "progress":
			progress++
			require.NotNil(t, frame.Progress)
			assert.Equal(t, 16, frame.Progress.Total)
			assert.Equal(t, progress, frame.Progress.Index)
		case "ranking":
			require.NotNil(t, frame.Comparison)
			assert.Len(t, frame.Comparison.Ranking, 16)
			assert.Equal(t, 16, progress)
			return
		case "error":
			t.Fatalf("unexpected error frame: %s", frame.Error)
		}
	}
}

func TestCompareStream_BadFirstFrame(t *testing.T) {
	env := newTestEnv(t)

	ts := httptest.NewServer(env.server.Echo())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/compare/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"target": "close"}))

	var frame streamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame.Type)
}
