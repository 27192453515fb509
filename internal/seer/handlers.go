package seer

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/HerbHall/presage/pkg/models"
	"github.com/HerbHall/presage/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/predictions", Handler: m.handlePredictions},
		{Method: "GET", Path: "/patterns", Handler: m.handlePatterns},
	}
}

// handlePredictions returns upcoming predicted occurrences, soonest first.
//
//	@Summary		Upcoming predictions
//	@Description	Returns predicted pattern occurrences that have not yet passed.
//	@Tags			seer
//	@Produce		json
//	@Param			timeframe_ms query int false "Only predictions due within this many milliseconds"
//	@Success		200 {array} models.UpcomingPrediction
//	@Failure		400 {object} map[string]any
//	@Router			/seer/predictions [get]
func (m *Module) handlePredictions(w http.ResponseWriter, r *http.Request) {
	var timeframe time.Duration
	if s := r.URL.Query().Get("timeframe_ms"); s != "" {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil || ms <= 0 {
			seerWriteError(w, http.StatusBadRequest, "timeframe_ms must be a positive integer")
			return
		}
		timeframe = time.Duration(ms) * time.Millisecond
	}

	predictions := m.Predictions(timeframe)
	if predictions == nil {
		predictions = []models.UpcomingPrediction{}
	}
	seerWriteJSON(w, http.StatusOK, predictions)
}

// handlePatterns returns every mined pattern, including those not yet
// eligible for prediction.
//
//	@Summary		Mined patterns
//	@Description	Returns the full pattern registry.
//	@Tags			seer
//	@Produce		json
//	@Success		200 {array} models.Pattern
//	@Router			/seer/patterns [get]
func (m *Module) handlePatterns(w http.ResponseWriter, _ *http.Request) {
	patterns := m.Patterns()
	if patterns == nil {
		patterns = []models.Pattern{}
	}
	seerWriteJSON(w, http.StatusOK, patterns)
}

// -- helpers --

func seerWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func seerWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://presage.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
