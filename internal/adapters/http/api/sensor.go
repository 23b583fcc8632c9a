// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/grbuguj/Sinker-IOT/internal/app"
)

// SensorHandler handles telemetry ingest requests.
type SensorHandler struct {
	deps Dependencies
}

// NewSensorHandler creates a new sensor handler.
func NewSensorHandler(deps Dependencies) *SensorHandler {
	return &SensorHandler{deps: deps}
}

// HandlePostSensor handles POST /sensor requests.
func (h *SensorHandler) HandlePostSensor(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_sensor"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req sensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.Accept(r.Context(), req.reading())
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrServerError, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{
		Status:    "ok",
		ID:        ack.ID,
		RiskLevel: int(ack.RiskLevel),
	})
}
