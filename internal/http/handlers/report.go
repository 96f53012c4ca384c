package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"assetgen/internal/middleware"
)

// Report returns the live snapshot of the running batch.
func (a *App) Report(w http.ResponseWriter, r *http.Request) {
	report := a.Batch.Snapshot()
	if report == nil {
		a.error(w, http.StatusServiceUnavailable, "not_started", "batch has not started yet")
		return
	}
	a.json(w, http.StatusOK, report)
}

type cancelResponse struct {
	AssetID string `json:"asset_id"`
	Status  string `json:"status"`
}

// CancelJob stops polling of one asset. The remote job is left running.
func (a *App) CancelJob(w http.ResponseWriter, r *http.Request) {
	assetID := strings.Trim(chi.URLParam(r, "*"), "/")
	if assetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset id is required")
		return
	}
	if !a.Batch.CancelJob(assetID) {
		a.error(w, http.StatusNotFound, "not_found", "asset is not being polled")
		return
	}
	a.Logger.Info().
		Str("asset_id", assetID).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("status api: cancel requested")
	a.json(w, http.StatusAccepted, cancelResponse{AssetID: assetID, Status: "cancelling"})
}
