package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/blastline/panel-server-go/internal/audit"
	"github.com/blastline/panel-server-go/internal/middleware"
	"github.com/blastline/panel-server-go/internal/service"
)

type AuthHandler struct {
	panel        *service.PanelService
	isProduction bool
}

func NewAuthHandler(panel *service.PanelService, isProduction bool) *AuthHandler {
	return &AuthHandler{
		panel:        panel,
		isProduction: isProduction,
	}
}

// Routes returns the unauthenticated auth endpoints.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /panel/api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, err := h.panel.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventRegister, UserID: user.ID})
	writeJSON(w, http.StatusCreated, map[string]any{"user": formatUser(user)})
}

// POST /panel/api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, token, err := h.panel.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]interface{}{"email": req.Email},
		})
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, token, h.isProduction)
	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess, UserID: user.ID})
	writeJSON(w, http.StatusOK, map[string]any{"user": formatUser(user)})
}

// POST /panel/api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err == nil && cookie.Value != "" {
		if err := h.panel.Logout(r.Context(), cookie.Value); err != nil {
			log.Warn().Err(err).Msg("logout cleanup failed")
		}
	}

	user := middleware.GetUser(r.Context())
	if user != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout, UserID: user.ID})
	}

	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GET /panel/api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": formatUser(user)})
}
