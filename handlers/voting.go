package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/civicballot/civicballot/auth"
	"github.com/civicballot/civicballot/cliparse"
	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/middleware"
	"github.com/civicballot/civicballot/models"
)

type VotingHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewVotingHandler(eng *engine.Engine, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{eng: eng, cfg: cfg}
}

// Register handles POST /elections/:id/register
func (h *VotingHandler) Register(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.VoterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id is required")
		return
	}
	if req.DisplayName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "display_name is required")
		return
	}

	now := time.Now()
	if err := h.eng.RegisterVoter(r.Context(), electionID, req.VoterID, req.DisplayName, now); err != nil {
		writeEngineError(w, err)
		return
	}

	// The credential has to outlive the whole election, not just the
	// registration window.
	election, err := h.eng.GetElection(r.Context(), electionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	ttl := election.VotingEnd.Sub(now) + 24*time.Hour

	token, err := auth.SignVoterToken(electionID, req.VoterID, h.cfg.JWTSecret, ttl)
	if err != nil {
		slog.Error("failed to sign voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	slog.Info("voter registered", "election_id", electionID, "voter_id", req.VoterID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterVoterResponse{
		VoterToken: token,
	})
}

// CastVote handles POST /elections/:id/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	claims := requireVoter(w, r, h.cfg.JWTSecret, electionID)
	if claims == nil {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PositionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "position_id is required")
		return
	}
	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate_id is required")
		return
	}

	sourceHash := auth.HashSource(middleware.GetClientIP(r), h.cfg.SourceSalt)

	vote, err := h.eng.CastVote(r.Context(), claims.VoterID, electionID, req.PositionID,
		req.CandidateID, sourceHash, time.Now())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		Receipt: vote.ReceiptCode,
		CastAt:  vote.CastAt,
	})
}
