package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/blastline/panel-server-go/internal/audit"
	"github.com/blastline/panel-server-go/internal/config"
	apperrors "github.com/blastline/panel-server-go/internal/errors"
	"github.com/blastline/panel-server-go/internal/httputil"
	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/service"
)

const SessionCookie = "panel_session"

type contextKey string

const UserContextKey contextKey = "panelUser"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// SessionMiddleware authenticates panel requests from the session
// cookie and puts the resolved user on the request context.
type SessionMiddleware struct {
	panel *service.PanelService
}

func NewSessionMiddleware(panel *service.PanelService) *SessionMiddleware {
	return &SessionMiddleware{panel: panel}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		user, err := m.panel.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			if apperrors.GetCode(err) == apperrors.ErrCodeDatabase {
				log.Error().Err(err).Msg("session middleware: database error")
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "Session validation failed",
				})
				return
			}
			httputil.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route on the is_admin flag. It must run after
// the session middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil || !user.IsAdmin {
			audit.LogFromRequest(r, audit.Event{
				Type:   audit.EventAuthFailure,
				UserID: userID(user),
				Details: map[string]interface{}{
					"reason": "admin required",
					"path":   r.URL.Path,
				},
			})
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Forbidden",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userID(user *model.User) string {
	if user == nil {
		return ""
	}
	return user.ID
}

func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(config.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
