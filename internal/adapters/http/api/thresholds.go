// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
)

// ThresholdsHandler handles classification parameter administration.
type ThresholdsHandler struct {
	deps Dependencies
}

// NewThresholdsHandler creates a new thresholds handler.
func NewThresholdsHandler(deps Dependencies) *ThresholdsHandler {
	return &ThresholdsHandler{deps: deps}
}

// thresholdRequest mirrors the upsert schema for POST /config/api/thresholds.
type thresholdRequest struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

func (t thresholdRequest) validate() error {
	switch {
	case strings.TrimSpace(t.Name) == "":
		return errors.New("missing name")
	case t.Value == nil:
		return errors.New("missing value")
	case math.IsNaN(*t.Value) || math.IsInf(*t.Value, 0):
		return errors.New("value must be finite")
	}
	return nil
}

// HandleThresholds handles GET and POST /config/api/thresholds requests.
func (h *ThresholdsHandler) HandleThresholds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleUpsert(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ThresholdsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Thresholds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *ThresholdsHandler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	const op = "api.upsert_threshold"
	var req thresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	entry, err := h.deps.UpsertThreshold(r.Context(), req.Name, *req.Value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
