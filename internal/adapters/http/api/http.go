// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/grbuguj/Sinker-IOT/internal/adapters/ws"
	service "github.com/grbuguj/Sinker-IOT/internal/app"
	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	"github.com/grbuguj/Sinker-IOT/internal/domain/thresholds"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Accept runs one reading through the ingestion pipeline.
	Accept(ctx context.Context, r model.Reading) (service.Ack, error)

	// Read operations expose the history ledger.
	Latest(ctx context.Context) (model.Record, error)
	History(ctx context.Context, q service.HistoryQuery) ([]model.Record, error)
	ExportCSV(ctx context.Context, q service.HistoryQuery, w io.Writer) (int, error)

	// Threshold administration.
	Thresholds(ctx context.Context) ([]thresholds.Entry, error)
	UpsertThreshold(ctx context.Context, name string, value float64) (thresholds.Entry, error)

	// Live observer registration.
	Subscribe(conn ws.Conn) *ws.Subscriber
	Unsubscribe(sub *ws.Subscriber)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	sensorHandler     *SensorHandler
	historyHandler    *HistoryHandler
	thresholdsHandler *ThresholdsHandler
	wsHandler         *WSHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		sensorHandler:     NewSensorHandler(deps),
		historyHandler:    NewHistoryHandler(deps),
		thresholdsHandler: NewThresholdsHandler(deps),
		wsHandler:         NewWSHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sensor", MetricsMiddleware(s.sensorHandler.HandlePostSensor, "sensor"))
	mux.HandleFunc("/latest", MetricsMiddleware(s.historyHandler.HandleLatest, "latest"))
	mux.HandleFunc("/api/history", MetricsMiddleware(s.historyHandler.HandleHistory, "history"))
	mux.HandleFunc("/api/history/csv", MetricsMiddleware(s.historyHandler.HandleExportCSV, "history_csv"))
	mux.HandleFunc("/config/api/thresholds", MetricsMiddleware(s.thresholdsHandler.HandleThresholds, "thresholds"))
	mux.HandleFunc("/ws", s.wsHandler.HandleWS)
}

// sensorRequest mirrors the device telemetry schema for POST /sensor.
// Only timestamp is optional; every sensor channel must be present.
type sensorRequest struct {
	Moisture     *float64       `json:"moisture"`
	Accel        *model.Vector3 `json:"accel"`
	Gyro         *model.Vector3 `json:"gyro"`
	VibrationRaw *float64       `json:"vibration_raw"`
	Timestamp    string         `json:"timestamp"`
}

func (s sensorRequest) validate() error {
	switch {
	case s.Moisture == nil:
		return errors.New("missing moisture")
	case s.Accel == nil:
		return errors.New("missing accel")
	case s.Gyro == nil:
		return errors.New("missing gyro")
	case s.VibrationRaw == nil:
		return errors.New("missing vibration_raw")
	}
	if s.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, s.Timestamp); err != nil {
			if _, err := time.Parse("2006-01-02T15:04:05", s.Timestamp); err != nil {
				return errors.New("invalid timestamp; must be ISO-8601")
			}
		}
	}
	return nil
}

func (s sensorRequest) reading() model.Reading {
	moisture := math.NaN()
	if s.Moisture != nil {
		moisture = *s.Moisture
	}
	vibration := math.NaN()
	if s.VibrationRaw != nil {
		vibration = *s.VibrationRaw
	}
	var accel, gyro model.Vector3
	if s.Accel != nil {
		accel = *s.Accel
	}
	if s.Gyro != nil {
		gyro = *s.Gyro
	}
	return model.Reading{
		Moisture:     moisture,
		Accel:        accel,
		Gyro:         gyro,
		VibrationRaw: vibration,
		Timestamp:    s.Timestamp,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        int64  `json:"id"`
	RiskLevel int    `json:"risk_level"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Status: "error", Message: msg})
}
