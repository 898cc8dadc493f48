package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/civicballot/civicballot/cliparse"
	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/middleware"
	"github.com/civicballot/civicballot/models"
)

type ElectionHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewElectionHandler(eng *engine.Engine, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{eng: eng, cfg: cfg}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r, h.cfg.JWTSecret) == nil {
		return
	}

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	detail, err := h.eng.CreateElection(r.Context(), req, time.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	positionIDs := make([]string, 0, len(detail.Positions))
	for _, p := range detail.Positions {
		positionIDs = append(positionIDs, p.ID)
	}

	slog.Info("election created", "election_id", detail.Election.ID, "title", detail.Election.Title)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: detail.Election.ID,
		Positions:  positionIDs,
	})
}

// ListElections handles GET /elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.eng.ListElections(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, elections)
}

// GetElection handles GET /elections/:id
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	now := time.Now()
	detail, err := h.eng.GetElectionDetail(r.Context(), electionID, now)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	detail.PhaseHint = phaseHint(detail.Election, detail.Phase, now)

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// UpdateWindows handles PUT /elections/:id/windows
func (h *ElectionHandler) UpdateWindows(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r, h.cfg.JWTSecret) == nil {
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	var req models.UpdateWindowsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	election, err := h.eng.UpdateWindows(r.Context(), electionID, req, time.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("election windows updated", "election_id", electionID)

	middleware.JSONResponse(w, http.StatusOK, election)
}

// SetOverride handles POST /elections/:id/override
func (h *ElectionHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r, h.cfg.JWTSecret) == nil {
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	var req models.SetOverrideRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.SetOverride(r.Context(), electionID, req.Override); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("election override set", "election_id", electionID, "override", req.Override)

	detail, err := h.eng.GetElectionDetail(r.Context(), electionID, time.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// phaseHint describes the next phase boundary in relative terms, e.g.
// "voting closes 2 days from now".
func phaseHint(e models.Election, phase string, now time.Time) string {
	switch phase {
	case models.PhaseScheduled:
		return "registration opens " + humanize.RelTime(e.RegistrationStart, now, "ago", "from now")
	case models.PhaseRegistrationOpen:
		return "applications open " + humanize.RelTime(e.ApplicationStart, now, "ago", "from now")
	case models.PhaseApplicationOpen:
		return "voting opens " + humanize.RelTime(e.VotingStart, now, "ago", "from now")
	case models.PhaseVotingOpen:
		return "voting closes " + humanize.RelTime(e.VotingEnd, now, "ago", "from now")
	case models.PhasePaused:
		return "voting is paused by the administrator"
	case models.PhaseCompleted:
		return "voting closed " + humanize.RelTime(e.VotingEnd, now, "ago", "from now")
	default:
		return ""
	}
}
