package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/civicballot/civicballot/auth"
	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/middleware"
)

// writeEngineError maps an engine error kind to an HTTP response.
func writeEngineError(w http.ResponseWriter, err error) {
	var status int
	switch engine.KindOf(err) {
	case engine.KindPhaseViolation, engine.KindInvalidTransition,
		engine.KindDuplicateApplication, engine.KindAlreadyVoted:
		status = http.StatusConflict
	case engine.KindInvalidCandidate, engine.KindValidation:
		status = http.StatusBadRequest
	case engine.KindNotFound:
		status = http.StatusNotFound
	case engine.KindStorageUnavailable:
		slog.Error("storage failure", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	default:
		slog.Error("unexpected error", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
		return
	}
	middleware.ErrorResponse(w, status, err.Error())
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// requireAdmin validates the request's admin token. On failure it writes a
// 401 and returns nil.
func requireAdmin(w http.ResponseWriter, r *http.Request, jwtSecret string) *auth.Claims {
	claims, err := auth.ParseToken(bearerToken(r), jwtSecret)
	if err != nil || claims.Subject != auth.SubjectAdmin {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Admin token required")
		return nil
	}
	return claims
}

// requireVoter validates the request's voter token for the given election.
// On failure it writes a 401 and returns nil.
func requireVoter(w http.ResponseWriter, r *http.Request, jwtSecret, electionID string) *auth.Claims {
	claims, err := auth.ParseToken(bearerToken(r), jwtSecret)
	if err != nil || claims.Subject != auth.SubjectVoter {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voter token required")
		return nil
	}
	if claims.ElectionID != electionID {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voter token is for a different election")
		return nil
	}
	return claims
}
