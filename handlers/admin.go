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

// adminTokenTTL bounds how long a login session stays valid.
const adminTokenTTL = 12 * time.Hour

type AdminHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewAdminHandler(eng *engine.Engine, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{eng: eng, cfg: cfg}
}

// Login handles POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Email == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email and password are required")
		return
	}

	account, err := h.eng.GetAdminByEmail(r.Context(), req.Email)
	if engine.KindOf(err) == engine.KindNotFound {
		// Same response as a wrong password so the endpoint does not
		// reveal which accounts exist.
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if !auth.CheckPassword(account.PassHash, req.Password) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.SignAdminToken(account.ID, account.Email, h.cfg.JWTSecret, adminTokenTTL)
	if err != nil {
		slog.Error("failed to sign admin token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	slog.Info("admin logged in", "email", account.Email)

	middleware.JSONResponse(w, http.StatusOK, models.AdminLoginResponse{
		Token: token,
	})
}
