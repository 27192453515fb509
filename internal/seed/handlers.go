package seed

import (
	"encoding/json"
	"net/http"

	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/testdata", Handler: m.handleGenerate},
	}
}

// handleGenerate generates synthetic alerts and feeds them through the
// ingestion path, returning the generated list.
//
//	@Summary		Generate test data
//	@Description	Generates synthetic alert traffic and records it. Dev mode only.
//	@Tags			seed
//	@Accept			json
//	@Produce		json
//	@Param			spec body GenerateSpec true "Generation spec"
//	@Success		200 {array} models.Alert
//	@Failure		400 {object} map[string]any
//	@Router			/seed/testdata [post]
func (m *Module) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var spec GenerateSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		seedWriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := spec.Validate(); err != nil {
		seedWriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts := Generate(spec, timeNow())
	if m.sink != nil {
		for i := range alerts {
			alerts[i] = m.sink.Record(r.Context(), alerts[i])
		}
	}

	m.logger.Info("synthetic alerts generated",
		zap.Int("count", len(alerts)),
		zap.Int("days", spec.Days),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(alerts)
}

func seedWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://presage.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
