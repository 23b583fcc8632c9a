// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/grbuguj/Sinker-IOT/internal/adapters/repository"
	service "github.com/grbuguj/Sinker-IOT/internal/app"
)

// timeLayouts accepted by the history range parameters, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// HistoryHandler handles record read requests.
type HistoryHandler struct {
	deps Dependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps Dependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleLatest handles GET /latest requests.
func (h *HistoryHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rec, err := h.deps.Latest(r.Context())
	if err != nil {
		// An empty ledger is not an error: answer with a JSON null so
		// clients can poll before the first reading lands.
		if errors.Is(err, repository.ErrEmpty) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleHistory handles GET /api/history requests. Records are returned
// newest first. The minutes parameter takes precedence over start/end.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseHistoryQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	records, err := h.deps.History(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleExportCSV handles GET /api/history/csv requests, streaming the
// matching records oldest first as a CSV attachment.
func (h *HistoryHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	const op = "api.history_csv"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseHistoryQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sensor_history.csv"`)
	if _, err := h.deps.ExportCSV(r.Context(), q, w); err != nil {
		// Headers are already gone; all we can do is log via the
		// middleware and stop writing.
		return
	}
}

func parseHistoryQuery(values url.Values) (service.HistoryQuery, error) {
	var q service.HistoryQuery

	if raw := values.Get("minutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return q, errors.New("minutes must be a positive integer")
		}
		q.Minutes = minutes
	}
	if raw := values.Get("start"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return q, errors.New("invalid start; must be ISO-8601")
		}
		q.Start = t
	}
	if raw := values.Get("end"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return q, errors.New("invalid end; must be ISO-8601")
		}
		q.End = t
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return q, errors.New("limit must be a positive integer")
		}
		q.Limit = limit
	}
	return q, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
