package handlers

import (
	"net/http"
	"time"

	"github.com/civicballot/civicballot/auth"
	"github.com/civicballot/civicballot/cliparse"
	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/middleware"
	"github.com/civicballot/civicballot/models"
)

type ResultsHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewResultsHandler(eng *engine.Engine, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{eng: eng, cfg: cfg}
}

// GetResults handles GET /elections/:id/results
// Results are sealed while voting can still change them: public access
// returns 403 until the election is completed or archived. Admins may
// watch the live tally.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	election, err := h.eng.GetElection(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	phase := engine.Phase(election, time.Now())
	if phase != models.PhaseCompleted && phase != models.PhaseArchived && !isAdmin(r, h.cfg.JWTSecret) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are sealed until the election completes")
		return
	}

	results, err := h.eng.TallyElection(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, results)
}

// GetTurnout handles GET /elections/:id/turnout
func (h *ResultsHandler) GetTurnout(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r, h.cfg.JWTSecret) == nil {
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	turnout, err := h.eng.Turnout(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, turnout)
}

// VerifyReceipt handles GET /receipts/:code
// A miss is a normal 200 with found=false, not an error, so the endpoint
// leaks nothing about which codes exist beyond the single lookup.
func (h *ResultsHandler) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "receipt code is required")
		return
	}

	resp, err := h.eng.VerifyReceipt(r.Context(), code)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// isAdmin reports whether the request carries a valid admin token without
// writing an error response.
func isAdmin(r *http.Request, jwtSecret string) bool {
	claims, err := auth.ParseToken(bearerToken(r), jwtSecret)
	return err == nil && claims.Subject == auth.SubjectAdmin
}
