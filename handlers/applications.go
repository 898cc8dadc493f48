package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/civicballot/civicballot/cliparse"
	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/middleware"
	"github.com/civicballot/civicballot/models"
)

type ApplicationHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewApplicationHandler(eng *engine.Engine, cfg cliparse.Config) *ApplicationHandler {
	return &ApplicationHandler{eng: eng, cfg: cfg}
}

// Submit handles POST /elections/:id/applications
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	claims := requireVoter(w, r, h.cfg.JWTSecret, electionID)
	if claims == nil {
		return
	}

	var req models.SubmitApplicationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PositionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "position_id is required")
		return
	}

	app, err := h.eng.SubmitApplication(r.Context(), claims.VoterID, electionID, req, time.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("application submitted", "application_id", app.ID, "election_id", electionID, "position_id", req.PositionID)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitApplicationResponse{
		ApplicationID: app.ID,
	})
}

// List handles GET /elections/:id/applications
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r, h.cfg.JWTSecret) == nil {
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	apps, err := h.eng.ListApplications(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, apps)
}

// Approve handles POST /applications/:id/approve
func (h *ApplicationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r, h.cfg.JWTSecret) == nil {
		return
	}

	applicationID := r.PathValue("id")
	if applicationID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "application_id is required")
		return
	}

	candidate, err := h.eng.ApproveApplication(r.Context(), applicationID, time.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("application approved", "application_id", applicationID, "candidate_id", candidate.ID)

	middleware.JSONResponse(w, http.StatusOK, candidate)
}

// Reject handles POST /applications/:id/reject
func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r, h.cfg.JWTSecret) == nil {
		return
	}

	applicationID := r.PathValue("id")
	if applicationID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "application_id is required")
		return
	}

	var req models.RejectApplicationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.RejectApplication(r.Context(), applicationID, req.Reason, time.Now()); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("application rejected", "application_id", applicationID)

	w.WriteHeader(http.StatusNoContent)
}

// Candidates handles GET /elections/:id/candidates
func (h *ApplicationHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	candidates, err := h.eng.ListCandidates(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, candidates)
}
