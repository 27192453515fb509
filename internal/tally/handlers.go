package tally

import (
	"encoding/json"
	"net/http"

	"github.com/HerbHall/presage/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/accuracy", Handler: m.handleAccuracy},
	}
}

// handleAccuracy returns the aggregate prediction accuracy report.
//
//	@Summary		Prediction accuracy
//	@Description	Returns totals, mean accuracy, per-pattern breakdown, and recent trend.
//	@Tags			tally
//	@Produce		json
//	@Success		200 {object} Metrics
//	@Router			/tally/accuracy [get]
func (m *Module) handleAccuracy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(m.Metrics())
}
