package handlers

import (
	"encoding/json"
	"net/http"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

// BatchView is the part of the orchestrator the status API reads and controls.
type BatchView interface {
	Snapshot() *domain.Report
	CancelJob(assetID string) bool
}

type App struct {
	Batch  BatchView
	Logger infra.Logger
}

func NewApp(batch BatchView, logger infra.Logger) *App {
	return &App{Batch: batch, Logger: logger}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Code: errCode, Message: message})
}
