package beacon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HerbHall/presage/pkg/models"
	"github.com/HerbHall/presage/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/history", Handler: m.handleHistory},
		{Method: "GET", Path: "/trends", Handler: m.handleTrends},
	}
}

// handleHistory returns alert history matching the query filters.
//
//	@Summary		Alert history
//	@Description	Returns recorded alerts filtered by type, severity, and time range.
//	@Tags			beacon
//	@Produce		json
//	@Param			type query string false "Alert type"
//	@Param			severity query string false "Severity (warning|critical)"
//	@Param			from query string false "RFC 3339 lower bound"
//	@Param			to query string false "RFC 3339 upper bound"
//	@Success		200 {array} models.Alert
//	@Failure		400 {object} map[string]any
//	@Router			/beacon/history [get]
func (m *Module) handleHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseHistoryFilter(r)
	if err != nil {
		beaconWriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	alerts := m.Query(filter)
	if alerts == nil {
		alerts = []models.Alert{}
	}
	beaconWriteJSON(w, http.StatusOK, alerts)
}

// handleTrends returns hourly and daily alert rollups.
//
//	@Summary		Alert trends
//	@Description	Returns counts over the last hour and day grouped by type and severity.
//	@Tags			beacon
//	@Produce		json
//	@Success		200 {object} Trends
//	@Router			/beacon/trends [get]
func (m *Module) handleTrends(w http.ResponseWriter, _ *http.Request) {
	beaconWriteJSON(w, http.StatusOK, m.Trends())
}

// parseHistoryFilter validates query parameters before they reach the
// pipeline. Invalid parameters are rejected synchronously.
func parseHistoryFilter(r *http.Request) (models.AlertFilter, error) {
	var f models.AlertFilter
	q := r.URL.Query()

	f.Type = q.Get("type")

	if s := q.Get("severity"); s != "" {
		sev := models.Severity(s)
		if !sev.Valid() {
			return f, fmt.Errorf("invalid severity %q: must be %q or %q", s, models.SeverityWarning, models.SeverityCritical)
		}
		f.Severity = sev
	}

	if s := q.Get("from"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, fmt.Errorf("invalid from %q: %v", s, err)
		}
		f.From = ts
	}

	if s := q.Get("to"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, fmt.Errorf("invalid to %q: %v", s, err)
		}
		f.To = ts
	}

	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("to %s is before from %s", f.To.Format(time.RFC3339), f.From.Format(time.RFC3339))
	}

	return f, nil
}

// -- helpers --

func beaconWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func beaconWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://presage.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
