package handler

import (
	"net/http"
	"time"

	"github.com/blastline/panel-server-go/internal/httputil"
	"github.com/blastline/panel-server-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func formatUser(user *model.User) map[string]any {
	return map[string]any{
		"id":          user.ID,
		"email":       user.Email,
		"isAdmin":     user.IsAdmin,
		"suspendedAt": formatTime(user.SuspendedAt),
		"botLinked":   user.BotChatID != nil,
		"createdAt":   user.CreatedAt.Format(time.RFC3339),
	}
}

func formatBlast(blast *model.Blast) map[string]any {
	return map[string]any{
		"id":           blast.ID,
		"title":        blast.Title,
		"message":      blast.Message,
		"targetGroups": blast.Groups(),
		"scheduledAt":  formatTime(blast.ScheduledAt),
		"intervalMins": blast.IntervalMins,
		"status":       blast.Status,
		"createdAt":    blast.CreatedAt.Format(time.RFC3339),
		"updatedAt":    blast.UpdatedAt.Format(time.RFC3339),
	}
}
