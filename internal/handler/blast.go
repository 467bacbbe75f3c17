package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/blastline/panel-server-go/internal/audit"
	"github.com/blastline/panel-server-go/internal/middleware"
	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/service"
	"github.com/blastline/panel-server-go/internal/sse"
)

type BlastHandler struct {
	blasts  *service.BlastService
	botlink *service.BotLinkService
	broker  EventPublisher
}

func NewBlastHandler(blasts *service.BlastService, botlink *service.BotLinkService, broker EventPublisher) *BlastHandler {
	return &BlastHandler{
		blasts:  blasts,
		botlink: botlink,
		broker:  broker,
	}
}

func (h *BlastHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{blastID}", h.Get)
	r.Patch("/{blastID}", h.Update)
	r.Delete("/{blastID}", h.Delete)

	return r
}

type blastRequest struct {
	Title        *string    `json:"title"`
	Message      *string    `json:"message"`
	TargetGroups []string   `json:"targetGroups"`
	ScheduledAt  *time.Time `json:"scheduledAt"`
	IntervalMins *int       `json:"intervalMinutes"`
	Status       *string    `json:"status"`
}

func parsePage(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// GET /panel/api/blasts
func (h *BlastHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	limit, offset := parsePage(r)

	blasts, err := h.blasts.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(blasts))
	for i := range blasts {
		items = append(items, formatBlast(&blasts[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"blasts": items})
}

// POST /panel/api/blasts
func (h *BlastHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req blastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	params := model.CreateBlastParams{
		TargetGroups: model.EncodeGroups(req.TargetGroups),
		ScheduledAt:  req.ScheduledAt,
	}
	if req.Title != nil {
		params.Title = *req.Title
	}
	if req.Message != nil {
		params.Message = *req.Message
	}
	if req.IntervalMins != nil {
		params.IntervalMins = *req.IntervalMins
	}
	if req.Status != nil {
		params.Status = model.BlastStatus(*req.Status)
	}

	blast, err := h.blasts.Create(r.Context(), user, params)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventBlastCreated,
		UserID:  user.ID,
		Details: map[string]interface{}{"blastId": blast.ID},
	})
	h.publishBlastEvent(r, user.ID, blast.ID)

	writeJSON(w, http.StatusCreated, map[string]any{"blast": formatBlast(blast)})
}

// GET /panel/api/blasts/{blastID}
func (h *BlastHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	blast, err := h.blasts.Get(r.Context(), user.ID, chi.URLParam(r, "blastID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"blast": formatBlast(blast)})
}

// PATCH /panel/api/blasts/{blastID}
func (h *BlastHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req blastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	params := model.UpdateBlastParams{
		Title:        req.Title,
		Message:      req.Message,
		ScheduledAt:  req.ScheduledAt,
		IntervalMins: req.IntervalMins,
	}
	if req.TargetGroups != nil {
		encoded := model.EncodeGroups(req.TargetGroups)
		params.TargetGroups = &encoded
	}
	if req.Status != nil {
		status := model.BlastStatus(*req.Status)
		params.Status = &status
	}

	blast, err := h.blasts.Update(r.Context(), user, chi.URLParam(r, "blastID"), params)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publishBlastEvent(r, user.ID, blast.ID)
	writeJSON(w, http.StatusOK, map[string]any{"blast": formatBlast(blast)})
}

// DELETE /panel/api/blasts/{blastID}
func (h *BlastHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	blastID := chi.URLParam(r, "blastID")

	if err := h.blasts.Delete(r.Context(), user.ID, blastID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventBlastDeleted,
		UserID:  user.ID,
		Details: map[string]interface{}{"blastId": blastID},
	})
	h.publishBlastEvent(r, user.ID, blastID)

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *BlastHandler) publishBlastEvent(r *http.Request, userID, blastID string) {
	if err := h.broker.Publish(r.Context(), userID, sse.TypeBlastUpdated, map[string]any{
		"blastId": blastID,
	}); err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("failed to publish blast event")
	}
}

// PUT /panel/api/link/groups
func (h *BlastHandler) SetTargetGroups(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req struct {
		Groups []string `json:"groups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	account, err := h.blasts.SetTargetGroups(r.Context(), user.ID, req.Groups)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"targetGroups": account.Groups()})
}

// POST /panel/api/bot/link
func (h *BlastHandler) GenerateBotLink(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	link, err := h.botlink.GenerateLink(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}
