package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/blastline/panel-server-go/internal/audit"
	apperrors "github.com/blastline/panel-server-go/internal/errors"
	"github.com/blastline/panel-server-go/internal/httputil"
	"github.com/blastline/panel-server-go/internal/linking"
	"github.com/blastline/panel-server-go/internal/middleware"
	"github.com/blastline/panel-server-go/internal/repository"
	"github.com/blastline/panel-server-go/internal/sse"
	"github.com/blastline/panel-server-go/internal/util"
)

// EventPublisher pushes panel events toward connected browsers.
// Satisfied by *sse.Broker.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, eventType string, data interface{}) error
}

// LinkHandler exposes the Telegram account linking flow to the panel.
type LinkHandler struct {
	linker   *linking.Linker
	accounts repository.TelegramAccountRepository
	broker   EventPublisher
}

func NewLinkHandler(linker *linking.Linker, accounts repository.TelegramAccountRepository, broker EventPublisher) *LinkHandler {
	return &LinkHandler{
		linker:   linker,
		accounts: accounts,
		broker:   broker,
	}
}

type requestCodeRequest struct {
	Phone string `json:"phone"`
}

type verifyCodeRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

type linkResultResponse struct {
	Status  linking.Status      `json:"status"`
	Message string              `json:"message"`
	Code    apperrors.ErrorCode `json:"code,omitempty"`
}

func writeLinkResult(w http.ResponseWriter, res linking.Result) {
	status := http.StatusOK
	switch res.Status {
	case linking.StatusError:
		status = httputil.StatusFromCode(res.Code)
	case linking.StatusSecondFactorRequired:
		status = httputil.StatusFromCode(apperrors.ErrCodeSecondFactorRequired)
	}

	writeJSON(w, status, linkResultResponse{
		Status:  res.Status,
		Message: res.Message,
		Code:    res.Code,
	})
}

// POST /panel/api/link/request-code
func (h *LinkHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	res := h.linker.RequestCode(r.Context(), user, req.Phone)

	if res.Status == linking.StatusSuccess {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLinkCodeRequest, UserID: user.ID})
	}

	writeLinkResult(w, res)
}

// POST /panel/api/link/verify-code
func (h *LinkHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	res := h.linker.VerifyCode(r.Context(), user, req.Code, req.Password)

	switch res.Status {
	case linking.StatusSuccess:
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLinkVerified, UserID: user.ID})
		if err := h.broker.Publish(r.Context(), user.ID, sse.TypeAccountLinked, map[string]any{
			"userId": user.ID,
		}); err != nil {
			log.Warn().Err(err).Str("userId", user.ID).Msg("failed to publish link event")
		}
	case linking.StatusError:
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLinkFailed,
			UserID:  user.ID,
			Details: map[string]interface{}{"code": string(res.Code)},
		})
	}

	writeLinkResult(w, res)
}

// GET /panel/api/link
func (h *LinkHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	account, err := h.accounts.FindByUserID(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to load telegram account")
		writeError(w, apperrors.Database(err))
		return
	}

	if account == nil {
		writeJSON(w, http.StatusOK, map[string]any{"linked": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"linked":       true,
		"active":       account.Active,
		"phone":        util.MaskPhone(account.Phone),
		"targetGroups": account.Groups(),
		"linkedAt":     account.UpdatedAt,
	})
}

// DELETE /panel/api/link
func (h *LinkHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	// Drop any half-finished attempt first.
	h.linker.Cancel(user.ID)

	account, err := h.accounts.FindByUserID(r.Context(), user.ID)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	if account == nil {
		writeError(w, apperrors.NotLinked())
		return
	}

	if err := h.accounts.SetActive(r.Context(), user.ID, false); err != nil {
		writeError(w, apperrors.Database(err))
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLinkCancelled, UserID: user.ID})
	if err := h.broker.Publish(r.Context(), user.ID, sse.TypeAccountUnlinked, map[string]any{
		"userId": user.ID,
	}); err != nil {
		log.Warn().Err(err).Str("userId", user.ID).Msg("failed to publish unlink event")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
