package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"market-forecast-lab/internal/compare"
	"market-forecast-lab/internal/observability"
)

// upgrader accepts any origin: the API is CORS-open and carries no
// credentials.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const streamWriteTimeout = 10 * time.Second

// streamFrame is one WebSocket message. Type is "progress" per finished
// model, then "ranking" with the full comparison, or "error".
type streamFrame struct {
	Type       string              `json:"type"`
	Progress   *compare.Progress   `json:"progress,omitempty"`
	Comparison *compare.Comparison `json:"comparison,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// compareStream runs a comparison over a WebSocket: the client sends one
// request frame, the server answers with a progress frame per model and a
// final ranking frame.
func (s *Server) compareStream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	observability.DefaultMetrics.WSStreamsActive.Inc()
	defer observability.DefaultMetrics.WSStreamsActive.Dec()

	var req forecastRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.writeFrame(conn, streamFrame{Type: "error", Error: "invalid request frame"})
		return nil
	}

	series, datasetID, err := s.resolveSeries(c, &req)
	if err != nil {
		s.writeFrame(conn, streamFrame{Type: "error", Error: err.Error()})
		return nil
	}

	runner := compare.New(compare.Options{
		Registry:       s.registry,
		Horizon:        boundHorizon(req.Horizon, compare.DefaultHorizon),
		BacktestWindow: boundHorizon(req.BacktestWindow, compare.DefaultBacktestWindow),
		Window:         boundWindow(req.Window),
		Logger:         s.logger,
		OnModel: func(p compare.Progress) {
			s.writeFrame(conn, streamFrame{Type: "progress", Progress: &p})
		},
	})

	start := time.Now()
	cmp, err := runner.Run(c.Request().Context(), series, req.Target)
	if err != nil {
		observability.RecordCompareRun("error", 0, time.Since(start).Seconds())
		s.writeFrame(conn, streamFrame{Type: "error", Error: err.Error()})
		return nil
	}
	observability.RecordCompareRun("ok", len(cmp.Ranking), time.Since(start).Seconds())

	if s.evals != nil && datasetID != "" {
		s.persistEvaluations(c, datasetID, req.Target, boundHorizon(req.BacktestWindow, compare.DefaultBacktestWindow), cmp)
	}

	s.writeFrame(conn, streamFrame{Type: "ranking", Comparison: cmp})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteTimeout))
	return nil
}

// writeFrame sends one JSON frame, logging write failures. A dead client
// surfaces again as a context error in the compare loop.
func (s *Server) writeFrame(conn *websocket.Conn, f streamFrame) {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(f); err != nil {
		s.logger.Debug().Err(err).Str("frame", f.Type).Msg("stream write failed")
	}
}
