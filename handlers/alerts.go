package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/civicballot/civicballot/cliparse"
	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/middleware"
)

type AlertHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewAlertHandler(eng *engine.Engine, cfg cliparse.Config) *AlertHandler {
	return &AlertHandler{eng: eng, cfg: cfg}
}

// List handles GET /elections/:id/alerts
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r, h.cfg.JWTSecret) == nil {
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	alerts, err := h.eng.ListAlerts(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, alerts)
}

// Resolve handles POST /alerts/:id/resolve
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r, h.cfg.JWTSecret) == nil {
		return
	}

	alertID := r.PathValue("id")
	if alertID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "alert_id is required")
		return
	}

	if err := h.eng.ResolveAlert(r.Context(), alertID, time.Now()); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("alert resolved", "alert_id", alertID)

	w.WriteHeader(http.StatusNoContent)
}
