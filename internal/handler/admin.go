package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blastline/panel-server-go/internal/audit"
	"github.com/blastline/panel-server-go/internal/middleware"
	"github.com/blastline/panel-server-go/internal/service"
)

type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/stats", h.Stats)
	r.Get("/users", h.ListUsers)
	r.Post("/users/{userID}/suspend", h.Suspend)
	r.Post("/users/{userID}/unsuspend", h.Unsuspend)
	r.Patch("/users/{userID}/role", h.SetRole)

	return r
}

// GET /panel/api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GET /panel/api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)

	users, err := h.admin.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(users))
	for i := range users {
		items = append(items, formatUser(&users[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": items})
}

// POST /panel/api/admin/users/{userID}/suspend
func (h *AdminHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	user, err := h.admin.Suspend(r.Context(), actor.ID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventUserSuspended,
		UserID:  userID,
		ActorID: actor.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"user": formatUser(user)})
}

// POST /panel/api/admin/users/{userID}/unsuspend
func (h *AdminHandler) Unsuspend(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	user, err := h.admin.Unsuspend(r.Context(), actor.ID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventUserUnsuspended,
		UserID:  userID,
		ActorID: actor.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"user": formatUser(user)})
}

// PATCH /panel/api/admin/users/{userID}/role
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	var req struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, err := h.admin.SetAdmin(r.Context(), actor.ID, userID, req.IsAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventAdminRoleChange,
		UserID:  userID,
		ActorID: actor.ID,
		Details: map[string]interface{}{"isAdmin": req.IsAdmin},
	})
	writeJSON(w, http.StatusOK, map[string]any{"user": formatUser(user)})
}
