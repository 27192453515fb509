package insight

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/HerbHall/presage/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/dashboard", Handler: m.handleDashboard},
	}
}

// handleDashboard returns the full analytics dashboard for a timeframe.
//
//	@Summary		Analytics dashboard
//	@Description	Returns summary, time series, distributions, pattern strength, seasonality, and forecast.
//	@Tags			insight
//	@Produce		json
//	@Param			timeframe query string false "Reporting window as a duration, e.g. 24h or 7d written as 168h" default(24h)
//	@Success		200 {object} analytics.Dashboard
//	@Failure		400 {object} map[string]any
//	@Router			/insight/dashboard [get]
func (m *Module) handleDashboard(w http.ResponseWriter, r *http.Request) {
	timeframe := m.cfg.DefaultTimeframe
	if s := r.URL.Query().Get("timeframe"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 || d > m.cfg.MaxTimeframe {
			insightWriteError(w, http.StatusBadRequest,
				"timeframe must be a positive duration no longer than "+m.cfg.MaxTimeframe.String())
			return
		}
		timeframe = d
	}

	insightWriteJSON(w, http.StatusOK, m.Dashboard(timeframe))
}

// -- helpers --

func insightWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func insightWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://presage.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
