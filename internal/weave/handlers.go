package weave

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/HerbHall/presage/pkg/models"
	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/batches", Handler: m.handleListBatches},
	}
}

// handleListBatches returns recently archived batches.
//
//	@Summary		Recent batches
//	@Description	Returns recently archived alert batches with their correlations.
//	@Tags			weave
//	@Produce		json
//	@Param			limit query int false "Maximum batches" default(20)
//	@Success		200 {array} models.Batch
//	@Failure		500 {object} map[string]any
//	@Router			/weave/batches [get]
func (m *Module) handleListBatches(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 200 {
			weaveWriteError(w, http.StatusBadRequest, "limit must be an integer in 1..200")
			return
		}
		limit = n
	}

	batches, err := m.store.ListRecent(r.Context(), limit)
	if err != nil {
		m.logger.Warn("failed to list batches", zap.Error(err))
		weaveWriteError(w, http.StatusInternalServerError, "failed to list batches")
		return
	}
	if batches == nil {
		batches = []models.Batch{}
	}
	weaveWriteJSON(w, http.StatusOK, batches)
}

// -- helpers --

func weaveWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func weaveWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://presage.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
